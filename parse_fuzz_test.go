package plotexpr_test

import (
	"errors"
	"testing"

	"github.com/zephyrtronium/plotexpr"
)

func FuzzParse(f *testing.F) {
	f.Add("x")
	f.Add("2x^2 + 3sin(x) - sqrt(x)")
	f.Add("2 + @")
	f.Add("((x)")
	f.Add("sin x")
	f.Fuzz(func(t *testing.T, s string) {
		e, err := plotexpr.Parse(s)
		if err != nil {
			var ie plotexpr.InputError
			if !errors.As(err, &ie) {
				t.Fatalf("%q: error %T does not implement InputError", s, err)
			}
			return
		}
		// Parsing the same input again gives the same tree.
		again, err := plotexpr.Parse(s)
		if err != nil || !e.Root().Equal(again.Root()) {
			t.Fatalf("%q: reparse gave %v, %v", s, again, err)
		}
	})
}
