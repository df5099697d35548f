package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/forensicq/pkg/types"
)

func TestPackageName(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"android data dir", "/data/data/com.example.app/databases/x.db", "com.example.app"},
		{"blacklisted only", "/evidence/tmp/file.txt", types.UnknownPackage},
		{"underscore part", "/evidence/org.foo_bar/cache/x.log", "org.foo_bar"},
		{"windows separators", `C:\dump\com.tencent.mm\MicroMsg\db.txt`, "com.tencent.mm"},
		{"first segment wins", "/a/com.first.one/b/org.second.two/f.txt", "com.first.one"},
		{"blacklist case insensitive", "/Library/Preferences/com.apple.finder.plist", "com.apple.finder"},
		{"file name suffix stripped", "/dump/com.apple.Safari.plist", "com.apple.Safari"},
		{"suffix case insensitive", "/dump/com.apple.Notes.PLIST", "com.apple.Notes"},
		{"app bundle without domain", "/Applications/Safari.app/Contents/Info.plist", types.UnknownPackage},
		{"empty part", "/x/com..example/y.txt", types.UnknownPackage},
		{"leading underscore part", "/x/com._private/y.txt", types.UnknownPackage},
		{"hyphen not allowed", "/x/com.my-app/y.txt", types.UnknownPackage},
		{"digit start allowed", "/x/cn.360.safe/y.txt", "cn.360.safe"},
		{"unicode letters", "/x/com.测试.应用/y.txt", "com.测试.应用"},
		{"trailing slash", "/x/com.example.app/", "com.example.app"},
		{"empty path", "", types.UnknownPackage},
		{"plain file", "notes.txt", types.UnknownPackage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PackageName(tt.path))
		})
	}
}

func TestPackageName_Deterministic(t *testing.T) {
	paths := []string{
		"/data/data/com.example.app/databases/x.db",
		"/evidence/tmp/file.txt",
		`a\b\org.foo_bar\c`,
	}
	for _, p := range paths {
		first := PackageName(p)
		for i := 0; i < 100; i++ {
			assert.Equal(t, first, PackageName(p))
		}
	}
}

func TestIsValidPackageName(t *testing.T) {
	assert.True(t, IsValidPackageName("com.example"))
	assert.True(t, IsValidPackageName("a.b_c.d1"))
	assert.False(t, IsValidPackageName("example"))
	assert.False(t, IsValidPackageName(".com.example"))
	assert.False(t, IsValidPackageName("com.example."))
	assert.False(t, IsValidPackageName("com._x"))
	assert.False(t, IsValidPackageName("com.ex ample"))
}
