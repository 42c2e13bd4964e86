package naming

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBase(t *testing.T) {
	cases := map[string]string{
		"":                      "",
		"welcome":               "welcome",
		"admin/user-list":       "user-list",
		"admin/user-list.html":  "user-list",
		`admin\users\show.html`: "show",
		"  spaced  ":            "spaced",
		".hidden":               ".hidden",
	}
	for in, want := range cases {
		if got := Base(in); got != want {
			t.Fatalf("Base(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProperties(t *testing.T) {
	got := Properties("admin/user-list")
	want := map[string]any{
		"name":       "user-list",
		"namePascal": "UserList",
		"nameCamel":  "userList",
		"nameSnake":  "user_list",
		"nameKebab":  "user-list",
		"nameLabel":  "User List",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("properties mismatch (-want +got):\n%s", diff)
	}
}

func TestLabel(t *testing.T) {
	cases := map[string]string{
		"userList":    "User List",
		"user_list":   "User List",
		"order-items": "Order Items",
		"":            "",
	}
	for in, want := range cases {
		if got := Label(in); got != want {
			t.Fatalf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}
