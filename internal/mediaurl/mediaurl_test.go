package mediaurl

import "testing"

func TestRoundTrip(t *testing.T) {
	url := For("post_image/abc123.png")
	if url != "/media/post_image/abc123.png" {
		t.Fatalf("For() = %q", url)
	}

	storagePath, ok := StoragePath(url)
	if !ok || storagePath != "post_image/abc123.png" {
		t.Errorf("StoragePath() = %q, %v", storagePath, ok)
	}
}

func TestStoragePathAcceptsAbsoluteURL(t *testing.T) {
	storagePath, ok := StoragePath("http://localhost:3000/media/avatar/xyz.jpg")
	if !ok || storagePath != "avatar/xyz.jpg" {
		t.Errorf("StoragePath() = %q, %v", storagePath, ok)
	}
}

func TestExternalURLsAreNotLocal(t *testing.T) {
	cases := []string{
		"",
		"https://lh3.googleusercontent.com/a/photo.jpg",
		"/uploads/avatar/xyz.jpg",
		"/media/",
	}
	for _, raw := range cases {
		if IsLocal(raw) {
			t.Errorf("IsLocal(%q) = true, want false", raw)
		}
	}
}
