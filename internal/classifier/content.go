package classifier

import (
	"errors"
	"fmt"
	"strings"
)

// Uncategorized is returned when no rule matches
const Uncategorized = "uncategorized"

// Rule maps a category to the keywords that select it
type Rule struct {
	Category string   `mapstructure:"category" json:"category"`
	Keywords []string `mapstructure:"keywords" json:"keywords"`
}

// DefaultRules is the built-in rule table. Order matters: credentials are
// checked before anything else.
var DefaultRules = []Rule{
	{Category: "credentials", Keywords: []string{
		"password", "passwd", "密码", "pwd", "login", "auth", "token", "secret", "credential",
		"account", "用户名", "username", "api_key", "api-key",
	}},
	{Category: "privilege", Keywords: []string{
		"admin", "administrator", "root", "sudo", "su", "管理员", "特权", "privilege", "elevated", "superuser",
	}},
	{Category: "network", Keywords: []string{
		"ip", "mac", "network", "wifi", "lan", "wan", "proxy", "端口", "port", "dns", "gateway",
		"subnet", "netmask", "ssid", "bssid",
	}},
	{Category: "database", Keywords: []string{
		"database", "mysql", "postgresql", "mongodb", "redis", "oracle", "sql", "db_", "connection",
		"host:", "port:", "username:", "password:",
	}},
	{Category: "api_keys", Keywords: []string{
		"api_key", "apikey", "api-key", "secret_key", "access_token", "refresh_token", "bearer", "jwt",
		"oauth", "client_id", "client_secret",
	}},
	{Category: "encryption", Keywords: []string{
		"encrypt", "decrypt", "cipher", "crypto", "hash", "md5", "sha", "rsa", "aes", "des", "私钥", "公钥",
		"private_key", "public_key", "证书", "certificate", "cert",
	}},
	{Category: "location", Keywords: []string{
		"latitude", "longitude", "lat", "lng", "lat:", "lon:", "gps", "location", "坐标", "经度", "纬度",
		"位置", "address", "street", "city", "country", "province", "geo",
	}},
	{Category: "device", Keywords: []string{
		"imei", "imsi", "device_id", "android_id", "mac_address", "serial", "model", "brand",
		"manufacturer", "设备", "型号", "硬件", "hardware",
	}},
	{Category: "communication", Keywords: []string{
		"phone", "mobile", "tel", "call", "sms", "message", "chat", "通话", "短信", "消息", "聊天",
		"phone_number", "mobile_number", "contact", "联系人",
	}},
	{Category: "file_paths", Keywords: []string{
		"path", "dir", "directory", "folder", "file://", `C:\`, `D:\`, "/home", "/usr", "file_path",
		"filename", "filepath",
	}},
	{Category: "logs", Keywords: []string{
		"log", "error", "warning", "debug", "info", "trace", "stack", "exception", "crash", "日志",
		"错误", "警告", "调试", "traceback",
	}},
	{Category: "timestamps", Keywords: []string{
		"timestamp", "datetime", "date:", "time:", "created_at", "updated_at", "expire", "expiry",
		"时间", "日期", "created", "updated",
	}},
	{Category: "config", Keywords: []string{
		"config", "settings", "setting", "conf", "cfg", "ini", "xml", "json", "yaml", "yml",
		"properties", "配置", "设置",
	}},
	{Category: "user_data", Keywords: []string{
		"user", "username", "nickname", "avatar", "profile", "user_id", "uid", "email", "mail",
		"用户", "昵称", "头像", "资料",
	}},
	{Category: "payment", Keywords: []string{
		"payment", "pay", "order", "transaction", "trade", "amount", "price", "cost", "money",
		"currency", "alipay", "wechatpay", "支付", "订单", "交易", "金额", "价格",
	}},
	{Category: "session", Keywords: []string{
		"session", "cookie", "csrf", "token", "sid", "会话", "session_id", "csrf_token", "session_token",
	}},
}

// Classifier assigns a content category using an ordered rule table.
// The first rule with any keyword contained in the content wins; matching
// is case-insensitive. A Classifier is immutable and safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// NewClassifier compiles rules into a Classifier. Keywords are lowercased
// once here so Classify only lowercases the content.
func NewClassifier(rules []Rule) (*Classifier, error) {
	if len(rules) == 0 {
		return nil, errors.New("classifier requires at least one rule")
	}

	compiled := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if r.Category == "" {
			return nil, fmt.Errorf("rule %d: empty category", i)
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw == "" {
				continue
			}
			kws = append(kws, strings.ToLower(kw))
		}
		if len(kws) == 0 {
			return nil, fmt.Errorf("rule %q: no keywords", r.Category)
		}
		compiled = append(compiled, Rule{Category: r.Category, Keywords: kws})
	}
	return &Classifier{rules: compiled}, nil
}

// Default returns a Classifier over DefaultRules
func Default() *Classifier {
	c, err := NewClassifier(DefaultRules)
	if err != nil {
		panic(fmt.Sprintf("invalid default rules: %v", err))
	}
	return c
}

// Classify returns the category for content, or Uncategorized
func (c *Classifier) Classify(content string) string {
	lower := strings.ToLower(content)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Category
			}
		}
	}
	return Uncategorized
}

// Categories lists rule categories in evaluation order
func (c *Classifier) Categories() []string {
	out := make([]string, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Category
	}
	return out
}
