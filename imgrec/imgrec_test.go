package imgrec_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nasa-jpl/fastmovie/imgrec"
)

func ExampleStripExt() {
	fmt.Println(imgrec.StripExt("take1.rawm"))
	fmt.Println(imgrec.StripExt("take1.raw"))
	fmt.Println(imgrec.StripExt("take1"))
	// Output:
	// take1
	// take1
	// take1
}

func fixed() time.Time {
	return time.Date(2024, 1, 31, 23, 59, 58, 0, time.Local)
}

func TestNext(t *testing.T) {
	root := t.TempDir()
	r := &imgrec.Recorder{Root: root, Prefix: "cam_", Now: fixed}
	base, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	exp := filepath.Join(root, "cam_20240131_235958")
	if base != exp {
		t.Errorf("expected %s got %s", exp, base)
	}

	os.WriteFile(base+".rawm", nil, 0666)
	base, _ = r.Next()
	if base != exp+"_1" {
		t.Errorf("expected %s got %s", exp+"_1", base)
	}
}

func TestNextDated(t *testing.T) {
	root := t.TempDir()
	r := &imgrec.Recorder{Root: root, Dated: true, Now: fixed}
	base, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	exp := filepath.Join(root, "2024-01-31", "20240131_235958")
	if base != exp {
		t.Errorf("expected %s got %s", exp, base)
	}
	if st, err := os.Stat(filepath.Dir(base)); err != nil || !st.IsDir() {
		t.Errorf("expected dated folder to be created, got %v", err)
	}
}

func TestResolveExplicit(t *testing.T) {
	r := &imgrec.Recorder{}
	base, err := r.Resolve("/data/run.rawm")
	if err != nil {
		t.Fatal(err)
	}
	if base != "/data/run" {
		t.Errorf("expected /data/run got %s", base)
	}
}
