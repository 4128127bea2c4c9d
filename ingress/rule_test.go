package ingress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func host(s string) *string { return &s }

func Test_Match(t *testing.T) {
	tests := []struct {
		name       string
		rules      []Rule
		candidates []string
		want       []string
	}{
		{
			name:       "exact",
			rules:      []Rule{{Host: host("app.example.com")}},
			candidates: []string{"app.example.com"},
			want:       []string{"app.example.com"},
		},
		{
			name:       "no match",
			rules:      []Rule{{Host: host("app.example.com")}},
			candidates: []string{"other.example.com"},
		},
		{
			name:       "wildcard",
			rules:      []Rule{{Host: host("*.svc.example.com")}},
			candidates: []string{"api.svc.example.com", "example.com"},
			want:       []string{"api.svc.example.com"},
		},
		{
			name:       "wildcard deeper label",
			rules:      []Rule{{Host: host("*.example.com")}},
			candidates: []string{"a.b.example.com", "example.com"},
			want:       []string{"a.b.example.com"},
		},
		{
			name:       "wildcard suffix is literal",
			rules:      []Rule{{Host: host("*.ex-ample.com")}},
			candidates: []string{"a.exXample.com", "a.ex-ample.com"},
			want:       []string{"a.ex-ample.com"},
		},
		{
			name:       "wildcard dot is literal",
			rules:      []Rule{{Host: host("*.example.com")}},
			candidates: []string{"a.exampleXcom"},
		},
		{
			name:       "wildcard is case sensitive",
			rules:      []Rule{{Host: host("*.example.com")}},
			candidates: []string{"api.EXAMPLE.com"},
		},
		{
			name:       "nil host skipped",
			rules:      []Rule{{Ingress: "default-backend"}, {Host: host("app.example.com")}},
			candidates: []string{"app.example.com"},
			want:       []string{"app.example.com"},
		},
		{
			name:       "embedded wildcard is literal",
			rules:      []Rule{{Host: host("a.*.example.com")}},
			candidates: []string{"a.b.example.com", "a.*.example.com"},
			want:       []string{"a.*.example.com"},
		},
		{
			name: "duplicates preserved in rule order",
			rules: []Rule{
				{Host: host("*.example.com")},
				{Host: host("api.example.com")},
				{Host: host("*.example.com")},
			},
			candidates: []string{"api.example.com", "web.example.com"},
			want: []string{
				"api.example.com", "web.example.com",
				"api.example.com",
				"api.example.com", "web.example.com",
			},
		},
		{
			name:       "exact wins over wildcard within one rule",
			rules:      []Rule{{Host: host("*.example.com")}},
			candidates: []string{"*.example.com", "x.example.com"},
			want:       []string{"*.example.com"},
		},
		{
			name:  "no candidates",
			rules: []Rule{{Host: host("*.example.com")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.candidates, tt.rules))
		})
	}
}

func Test_hostPattern(t *testing.T) {
	assert.Nil(t, hostPattern("example.com"))
	assert.Nil(t, hostPattern("*."))
	assert.Nil(t, hostPattern("*.*.example.com"))
	assert.Nil(t, hostPattern("**.example.com"))

	re := hostPattern("*.example.com")
	if assert.NotNil(t, re) {
		assert.True(t, re.MatchString("x.example.com"))
		assert.False(t, re.MatchString(".example.com"))
		assert.False(t, re.MatchString("example.com"))
	}
}
