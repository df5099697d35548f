package classifier

// AppInfo describes a known application package
type AppInfo struct {
	Package string `json:"package_name"`
	Name    string `json:"app_name"`
	Type    string `json:"app_type"`
}

// UnknownAppType is the type reported for packages missing from the table
const UnknownAppType = "unknown"

type appEntry struct {
	name    string
	appType string
}

var knownApps = map[string]appEntry{
	// chat
	"com.tencent.mm":            {"WeChat", "chat"},
	"com.tencent.mobileqq":      {"QQ", "chat"},
	"com.tencent.qqlite":        {"QQ Lite", "chat"},
	"com.tencent.tim":           {"TIM", "chat"},
	"com.alibaba.android.rimet": {"DingTalk", "chat"},

	// social
	"com.ss.android.ugc.aweme": {"Douyin", "social"},
	"com.smile.gifmaker":       {"Kuaishou", "social"},
	"com.tencent.weishi":       {"Weishi", "social"},
	"com.instagram.android":    {"Instagram", "social"},
	"com.facebook.katana":      {"Facebook", "social"},
	"com.twitter.android":      {"Twitter", "social"},
	"com.zhihu.android":        {"Zhihu", "social"},

	// food
	"com.sankuai.meituan.takeoutnew": {"Meituan Takeout", "food"},
	"com.sankuai.meituan":            {"Meituan", "food"},
	"com.sankuai.meituan.im":         {"Meituan Dianping", "food"},
	"com.ele.me":                     {"Ele.me", "food"},
	"com.dianping.v1":                {"Dianping", "food"},

	// shopping
	"com.taobao.taobao":                 {"Taobao", "shopping"},
	"com.tmall.wireless":                {"Tmall", "shopping"},
	"com.jingdong.app.mall":             {"JD", "shopping"},
	"com.pinduoduo.pdd":                 {"Pinduoduo", "shopping"},
	"com.suning.mobile.ebuy":            {"Suning", "shopping"},
	"com.gome.minigold":                 {"Gome", "shopping"},
	"com.amazon.mShop.android.shopping": {"Amazon", "shopping"},

	// finance
	"com.eg.android.AlipayGphone": {"Alipay", "finance"},
	"com.unionpay":                {"UnionPay", "finance"},
	"com.icbc":                    {"ICBC", "finance"},
	"com.ccb":                     {"China Construction Bank", "finance"},
	"com.boc":                     {"Bank of China", "finance"},
	"com.bankcomm":                {"Bank of Communications", "finance"},

	// media
	"com.tencent.qqmusic":    {"QQ Music", "media"},
	"com.kugou.android":      {"Kugou Music", "media"},
	"com.kuwo.kwmusic":       {"Kuwo Music", "media"},
	"cn.kuwo.player":         {"Kuwo Music", "media"},
	"com.netease.cloudmusic": {"NetEase Cloud Music", "media"},
	"com.tencent.qqlive":     {"Tencent Video", "media"},
	"com.youku.phone":        {"Youku", "media"},
	"com.iqiyi.i18n":         {"iQIYI", "media"},
	"tv.danmaku.bili":        {"Bilibili", "media"},
	"com.bilibili.app.in":    {"Bilibili", "media"},
	"com.android.music":      {"Music", "media"},
	"com.android.video":      {"Video", "media"},

	// map
	"com.autonavi.minimap":       {"Amap", "map"},
	"com.baidu.BaiduMap":         {"Baidu Maps", "map"},
	"com.tencent.map":            {"Tencent Maps", "map"},
	"com.mapbar.android.map":     {"Mapbar", "map"},
	"com.sogou.map.android.maps": {"Sogou Maps", "map"},

	// tool
	"com.cleanmaster.security":         {"Clean Master", "tool"},
	"cn.ks.ssr":                        {"Phone Assistant", "tool"},
	"com.tencent.android.qqdownloader": {"Tencent MyApp", "tool"},
	"com.UCMobile":                     {"UC Browser", "tool"},
	"com.tencent.mtt":                  {"QQ Browser", "tool"},

	// office
	"cn.wps.moffice_eng":              {"WPS Office", "office"},
	"com.microsoft.office.word":       {"Word", "office"},
	"com.microsoft.office.excel":      {"Excel", "office"},
	"com.microsoft.office.powerpoint": {"PowerPoint", "office"},
	"com.tencent.wework":              {"WeCom", "office"},
	"com.larksuite.suite":             {"Lark", "office"},
	"com.alibaba.android.dingtalk":    {"DingTalk", "office"},

	// game
	"com.tencent.tmgp.sgame":      {"Honor of Kings", "game"},
	"com.tencent.tmgp.pubgmhd":    {"Peacekeeper Elite", "game"},
	"com.miHoYo.GenshinImpact":    {"Genshin Impact", "game"},
	"com.levelinfinite.hotta.gp":  {"Tower of Fantasy", "game"},
	"com.netease.dwrg":            {"Identity V", "game"},
	"com.pearlabyss.blackdesertm": {"Black Desert Mobile", "game"},
	"com.tencent.ig":              {"League of Legends: Wild Rift", "game"},

	// education
	"com.iflytek.inputmethod": {"iFlytek Input", "education"},
	"com.baidu.input":         {"Baidu Input", "education"},
	"com.tencent.qidian":      {"Qidian Reader", "education"},
	"com.zy.flt_ee":           {"iReader", "education"},
	"com.cmcc.cmvideo":        {"Migu Video", "education"},
	"com.peopledailychina":    {"People's Daily", "education"},
	"com.tencent.news":        {"Tencent News", "education"},

	// system
	"com.android.packageinstaller": {"Package Installer", "system"},
	"com.android.settings":         {"Settings", "system"},
	"com.android.contacts":         {"Contacts", "system"},
	"com.android.mms":              {"Messaging", "system"},
	"com.android.phone":            {"Phone", "system"},
	"com.android.camera":           {"Camera", "system"},
	"com.android.gallery3d":        {"Gallery", "system"},
	"com.android.calendar":         {"Calendar", "system"},
	"com.android.calculator2":      {"Calculator", "system"},
	"com.android.clock":            {"Clock", "system"},
	"com.android.systemui":         {"System UI", "system"},
	"com.android.downloads":        {"Downloads", "system"},
	"com.android.filemanager":      {"File Manager", "system"},
	"com.miui.home":                {"MIUI Launcher", "system"},
	"com.huawei.android.launcher":  {"Huawei Launcher", "system"},
	"com.oppo.launcher":            {"OPPO Launcher", "system"},
	"com.vivo.launcher":            {"vivo Launcher", "system"},
	"com.samsung.android.launcher": {"Samsung Launcher", "system"},
}

// LookupApp returns display metadata for a package. Packages not in the
// table are reported under their own name with UnknownAppType.
func LookupApp(pkg string) AppInfo {
	if e, ok := knownApps[pkg]; ok {
		return AppInfo{Package: pkg, Name: e.name, Type: e.appType}
	}
	return AppInfo{Package: pkg, Name: pkg, Type: UnknownAppType}
}
