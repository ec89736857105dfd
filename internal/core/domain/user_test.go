package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestProfile_ImageURL tests avatar sizing
func TestProfile_ImageURL(t *testing.T) {
	tests := []struct {
		name    string
		picture string
		want    string
		ok      bool
	}{
		{
			name:    "replaces size suffix",
			picture: "https://lh3.googleusercontent.com/a/ACg8ocK=s96-c",
			want:    "https://lh3.googleusercontent.com/a/ACg8ocK=s100",
			ok:      true,
		},
		{
			name:    "appends size when none present",
			picture: "https://lh3.googleusercontent.com/a/ACg8ocK",
			want:    "https://lh3.googleusercontent.com/a/ACg8ocK=s100",
			ok:      true,
		},
		{
			name:    "legacy photo url uses sz",
			picture: "https://lh4.googleusercontent.com/-x/AAAAAAAAAAI/AAAAAAAAAAA/abc/photo.jpg",
			want:    "https://lh4.googleusercontent.com/-x/AAAAAAAAAAI/AAAAAAAAAAA/abc/photo.jpg?sz=100",
			ok:      true,
		},
		{
			name:    "legacy photo url replaces sz",
			picture: "https://lh4.googleusercontent.com/-x/photo.jpg?sz=50",
			want:    "https://lh4.googleusercontent.com/-x/photo.jpg?sz=100",
			ok:      true,
		},
		{name: "no picture", picture: ""},
		{name: "relative url", picture: "/a/photo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{PictureURL: tt.picture}
			got, ok := p.ImageURL(100)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestProfile_ImageURL_Nil tests the nil receiver
func TestProfile_ImageURL_Nil(t *testing.T) {
	var p *Profile

	_, ok := p.ImageURL(100)

	assert.False(t, ok)
}

// TestEffectiveConfig_Clone tests that clones share no slices
func TestEffectiveConfig_Clone(t *testing.T) {
	cfg := EffectiveConfig{ClientID: "c", RequestedScopes: []string{"a"}}

	clone := cfg.Clone()
	clone.RequestedScopes[0] = "b"

	assert.Equal(t, "a", cfg.RequestedScopes[0])
	assert.False(t, cfg.HasServerClientID())
}
