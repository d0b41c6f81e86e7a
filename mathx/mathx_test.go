package mathx_test

import (
	"fmt"
	"testing"

	"github.com/nasa-jpl/fastmovie/mathx"
)

func ExampleRound() {
	fmt.Println(mathx.Round(1.2345, 0.01))
	// Output: 1.23
}

func TestClampInt(t *testing.T) {
	cases := [][4]int{{-10, -8, 18, -8}, {20, -8, 18, 18}, {3, -8, 18, 3}}
	for _, c := range cases {
		if got := mathx.ClampInt(c[0], c[1], c[2]); got != c[3] {
			t.Errorf("ClampInt(%d, %d, %d): expected %d got %d", c[0], c[1], c[2], c[3], got)
		}
	}
}
