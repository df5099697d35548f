package classifier

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Default(t *testing.T) {
	c := Default()

	tests := []struct {
		content string
		want    string
	}{
		{"password: abc123", "credentials"},
		{"PASSWORD=hunter2", "credentials"},
		{"用户名: 张三", "credentials"},
		{"latitude 31.2304", "location"},
		{"2024-01-01 ERROR boom", "logs"},
		{"mysql host", "database"},
		{"hello world", Uncategorized},
		{"", Uncategorized},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.content))
		})
	}
}

func TestClassify_FirstRuleWins(t *testing.T) {
	c, err := NewClassifier([]Rule{
		{Category: "first", Keywords: []string{"alpha"}},
		{Category: "second", Keywords: []string{"alpha", "beta"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "first", c.Classify("beta then alpha"))
	assert.Equal(t, "second", c.Classify("only beta"))
	assert.Equal(t, Uncategorized, c.Classify("gamma"))
}

func TestClassify_CaseInsensitiveKeywords(t *testing.T) {
	c, err := NewClassifier([]Rule{{Category: "gps", Keywords: []string{"GPS"}}})
	require.NoError(t, err)

	assert.Equal(t, "gps", c.Classify("raw gps fix"))
	assert.Equal(t, "gps", c.Classify("RAW GPS FIX"))
}

func TestClassify_Deterministic(t *testing.T) {
	c := Default()
	inputs := []string{"password: abc123", "hello world", "session cookie", "订单 金额"}

	first := make([]string, len(inputs))
	for i, in := range inputs {
		first[i] = c.Classify(in)
	}
	for n := 0; n < 50; n++ {
		got := make([]string, len(inputs))
		for i, in := range inputs {
			got[i] = c.Classify(in)
		}
		if diff := cmp.Diff(first, got); diff != "" {
			t.Fatalf("classification changed (-first +got):\n%s", diff)
		}
	}
}

func TestNewClassifier_Invalid(t *testing.T) {
	_, err := NewClassifier(nil)
	assert.Error(t, err)

	_, err = NewClassifier([]Rule{{Category: "", Keywords: []string{"x"}}})
	assert.Error(t, err)

	_, err = NewClassifier([]Rule{{Category: "empty", Keywords: []string{""}}})
	assert.Error(t, err)
}

func TestCategories(t *testing.T) {
	got := Default().Categories()
	require.Len(t, got, 16)
	assert.Equal(t, "credentials", got[0])
	assert.Equal(t, "session", got[len(got)-1])
}

func TestLookupApp(t *testing.T) {
	want := AppInfo{Package: "com.tencent.mm", Name: "WeChat", Type: "chat"}
	if diff := cmp.Diff(want, LookupApp("com.tencent.mm")); diff != "" {
		t.Errorf("LookupApp mismatch (-want +got):\n%s", diff)
	}

	unknown := LookupApp("org.foo_bar")
	assert.Equal(t, "org.foo_bar", unknown.Name)
	assert.Equal(t, UnknownAppType, unknown.Type)
}
