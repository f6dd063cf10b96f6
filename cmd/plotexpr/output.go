package main

import (
	"encoding/json"
	"math/big"
	"strconv"
)

// maxDecimalExp bounds the binary exponent of values printed in decimal.
// Larger magnitudes print with a hexadecimal mantissa and binary exponent.
const maxDecimalExp = 4096

// formatBig formats a precise result.
func formatBig(r *big.Float) string {
	if e := r.MantExp(nil); e > maxDecimalExp || e < -maxDecimalExp {
		return r.Text('p', 0)
	}
	return r.Text('g', -1)
}

// write writes results in the configured format.
func (a *app) write(results []result) error {
	if a.cfg.Format == "json" {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	var b []byte
	for _, r := range results {
		b = append(b[:0], "# "...)
		b = append(b, r.Expr...)
		if r.Tree != "" {
			b = append(b, " : "...)
			b = append(b, r.Tree...)
		}
		b = append(b, '\n')
		if r.Err != "" {
			b = append(b, "# error: "...)
			b = append(b, r.Err...)
			b = append(b, '\n')
		}
		for _, p := range r.Points {
			b = strconv.AppendFloat(b, p.X, 'g', -1, 64)
			b = append(b, '\t')
			b = strconv.AppendFloat(b, p.Y, 'g', -1, 64)
			b = append(b, '\n')
		}
		if _, err := a.out.Write(b); err != nil {
			return err
		}
	}
	return nil
}
