package validation

import (
	"testing"

	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
)

func TestValidateImageURL(t *testing.T) {
	tests := []struct {
		name      string
		validator *URLValidator
		url       string
		wantErr   bool
	}{
		{"http", NewURLValidator(), "http://example.com/shot.png", false},
		{"https with path", NewURLValidator(), "https://cdn.example.com/a/b/shot.webp", false},
		{"ip host", NewURLValidator(), "http://192.168.1.1/shot.png", false},
		{"uppercase scheme", NewURLValidator(), "HTTPS://example.com/shot.png", false},
		{"empty", NewURLValidator(), "", true},
		{"whitespace", NewURLValidator(), "   ", true},
		{"ftp", NewURLValidator(), "ftp://example.com/shot.png", true},
		{"data url", NewURLValidator(), "data:image/png;base64,AAAA", true},
		{"file", NewURLValidator(), "file:///etc/passwd", true},
		{"no host", NewURLValidator(), "https:///shot.png", true},
		{"relative", NewURLValidator(), "/shot.png", true},
		{"bad escape", NewURLValidator(), "http://example.com/%zz", true},
		{
			"allowed host",
			NewURLValidatorWithOptions([]string{"https"}, []string{"Images.Example.com"}),
			"https://images.example.com:8443/shot.png",
			false,
		},
		{
			"host not in list",
			NewURLValidatorWithOptions([]string{"https"}, []string{"images.example.com"}),
			"https://evil.example.net/shot.png",
			true,
		},
		{
			"scheme restricted",
			NewURLValidatorWithOptions([]string{"https"}, nil),
			"http://example.com/shot.png",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validator.ValidateImageURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected %q to fail validation", tt.url)
				}
				if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
					t.Errorf("Expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Expected %q to pass validation, got %v", tt.url, err)
			}
		})
	}
}

func TestNewURLValidatorWithOptions_IgnoresBlankHosts(t *testing.T) {
	v := NewURLValidatorWithOptions([]string{"https"}, []string{"", "  "})

	if len(v.allowedHosts) != 0 {
		t.Errorf("Expected blank hosts to be dropped, got %v", v.allowedHosts)
	}
	if err := v.ValidateImageURL("https://anything.example.org/x.png"); err != nil {
		t.Errorf("Expected all hosts allowed, got %v", err)
	}
}

func TestIsAzureBlobURL(t *testing.T) {
	tests := map[string]bool{
		"https://acct.blob.core.windows.net/shots/home.png":      true,
		"https://ACCT.BLOB.CORE.WINDOWS.NET/shots/home.png?sv=1": true,
		"https://example.com/blob.core.windows.net/x.png":        false,
		"https://blob.core.windows.net.evil.com/x.png":           false,
		"::not a url": false,
	}

	for url, want := range tests {
		if got := IsAzureBlobURL(url); got != want {
			t.Errorf("IsAzureBlobURL(%q) = %v, want %v", url, got, want)
		}
	}
}
