package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name":"demo"}`), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "src", "main")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot failed: %v", err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestReadPackageInfo(t *testing.T) {
	p := filepath.Join(t.TempDir(), "package.json")
	content := `{"name":"demo","version":"1.2.3","main":"dist/main.js","productName":"Demo App"}`
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	info, err := ReadPackageInfo(p)
	if err != nil {
		t.Fatalf("ReadPackageInfo failed: %v", err)
	}
	want := PackageInfo{Name: "demo", Version: "1.2.3", Main: "dist/main.js", ProductName: "Demo App"}
	if *info != want {
		t.Errorf("Expected %+v, got %+v", want, *info)
	}

	name, err := PackageField(p, "name")
	if err != nil || name != "demo" {
		t.Errorf("PackageField(name) = %q, %v", name, err)
	}
}

func TestReadPackageInfoInvalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "package.json")
	if err := os.WriteFile(p, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPackageInfo(p); err == nil {
		t.Fatal("Expected error for invalid package.json")
	}
}

func TestCopyAndMoveDir(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src")
	if err := os.MkdirAll(filepath.Join(src, "a", "b"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "a", "b", "c.txt"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Symlink("b/c.txt", filepath.Join(src, "a", "link")); err != nil {
			t.Fatal(err)
		}
	}

	copied := filepath.Join(t.TempDir(), "copy")
	if err := CopyDir(src, copied); err != nil {
		t.Fatalf("CopyDir failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(copied, "a", "b", "c.txt"))
	if err != nil || string(data) != "c" {
		t.Fatalf("copied file = %q, %v", data, err)
	}
	if runtime.GOOS != "windows" {
		if target, err := os.Readlink(filepath.Join(copied, "a", "link")); err != nil || target != "b/c.txt" {
			t.Errorf("copied link = %q, %v", target, err)
		}
	}

	moved := filepath.Join(t.TempDir(), "nested", "moved")
	if err := MoveDir(src, moved); err != nil {
		t.Fatalf("MoveDir failed: %v", err)
	}
	if Exists(src) {
		t.Error("Expected source to be gone after MoveDir")
	}
	if !Exists(filepath.Join(moved, "a", "b", "c.txt")) {
		t.Error("Expected moved file to exist")
	}
}

func TestWithExeSuffix(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		want     string
	}{
		{"Demo", "windows", "Demo.exe"},
		{"Demo.exe", "windows", "Demo.exe"},
		{"Demo", "linux", "Demo"},
		{"Demo", "darwin", "Demo"},
	}
	for _, tc := range tests {
		if got := WithExeSuffix(tc.name, tc.platform); got != tc.want {
			t.Errorf("WithExeSuffix(%q, %q) = %q, expected %q", tc.name, tc.platform, got, tc.want)
		}
	}
}
