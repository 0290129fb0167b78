package validation

import (
	"net"
	"strings"
	"testing"
)

func TestValidateBaseURL(t *testing.T) {
	SetAllowPrivate(false)
	tests := []struct {
		name      string
		url       string
		wantError bool
		errorText string
	}{
		{name: "public IP", url: "https://93.184.216.34"},
		{name: "public IP with port", url: "http://93.184.216.34:8080"},
		{name: "unresolvable host", url: "https://shop.invalid"},
		{name: "trailing slash", url: "https://shop.invalid/"},
		{name: "empty", url: "", wantError: true, errorText: "cannot be empty"},
		{name: "ftp scheme", url: "ftp://shop.invalid", wantError: true, errorText: "only http and https"},
		{name: "no host", url: "https://", wantError: true, errorText: "hostname"},
		{name: "query", url: "https://shop.invalid?x=1", wantError: true, errorText: "query"},
		{name: "rest path", url: "https://shop.invalid/rest", wantError: true, errorText: "/rest"},
		{name: "localhost", url: "http://localhost:8080", wantError: true, errorText: "localhost"},
		{name: "loopback", url: "http://127.0.0.1", wantError: true, errorText: "localhost"},
		{name: "private", url: "http://192.168.1.10", wantError: true, errorText: "private"},
		{name: "metadata", url: "http://169.254.169.254", wantError: true, errorText: "metadata"},
		{name: "too long", url: "https://shop.invalid/" + strings.Repeat("a", MaxURLLength), wantError: true, errorText: "maximum length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBaseURL(tt.url)
			if tt.wantError {
				if err == nil {
					t.Fatalf("ValidateBaseURL(%q) expected error", tt.url)
				}
				if !strings.Contains(err.Error(), tt.errorText) {
					t.Errorf("error %q does not contain %q", err, tt.errorText)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateBaseURL(%q) unexpected error: %v", tt.url, err)
			}
		})
	}
}

func TestValidateBaseURL_AllowPrivate(t *testing.T) {
	SetAllowPrivate(true)
	t.Cleanup(func() { SetAllowPrivate(false) })

	if !AllowPrivateEnabled() {
		t.Fatal("AllowPrivateEnabled() = false")
	}
	for _, u := range []string{"http://127.0.0.1:8080", "http://localhost", "http://10.0.0.5"} {
		if err := ValidateBaseURL(u); err != nil {
			t.Errorf("ValidateBaseURL(%q) = %v", u, err)
		}
	}
	if err := ValidateBaseURL("http://169.254.169.254"); err == nil {
		t.Error("metadata endpoint must stay blocked")
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := map[string]string{
		"shop.plentymarkets-cloud01.com": "https://shop.plentymarkets-cloud01.com",
		" https://shop.example.com/ ":    "https://shop.example.com",
		"http://10.0.0.5:8080//":         "http://10.0.0.5:8080",
		"":                               "",
	}
	for in, want := range tests {
		if got := NormalizeBaseURL(in); got != want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsCloudMetadata(t *testing.T) {
	for _, host := range []string{"169.254.169.254", "metadata.google.internal", "x.metadata.google.internal", "METADATA"} {
		if !isCloudMetadata(host) {
			t.Errorf("isCloudMetadata(%q) = false", host)
		}
	}
	if isCloudMetadata("shop.example.com") {
		t.Error("isCloudMetadata(shop.example.com) = true")
	}
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{"10.1.2.3", "172.16.0.1", "192.168.0.1", "fc00::1", "::1"}
	for _, s := range private {
		if !isPrivateIP(net.ParseIP(s)) {
			t.Errorf("isPrivateIP(%s) = false", s)
		}
	}
	for _, s := range []string{"8.8.8.8", "93.184.216.34", "2606:4700::1111"} {
		if isPrivateIP(net.ParseIP(s)) {
			t.Errorf("isPrivateIP(%s) = true", s)
		}
	}
}
