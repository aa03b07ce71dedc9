package centfit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/decibelcooper/centfit/fit"
)

// FloatArrayFlags collects floats from repeated or comma separated flag
// values. The first Set replaces the defaults.
type FloatArrayFlags struct {
	Array   []float64
	beenSet bool
}

func (f *FloatArrayFlags) Set(valueStr string) error {
	var values []float64
	for _, s := range strings.Split(valueStr, ",") {
		value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return err
		}
		values = append(values, value)
	}

	if !f.beenSet {
		f.beenSet = true
		f.Array = nil
	}

	f.Array = append(f.Array, values...)
	return nil
}

func (f *FloatArrayFlags) String() string {
	return fmt.Sprint(f.Array)
}

// IsSet reports whether the flag appeared on the command line.
func (f *FloatArrayFlags) IsSet() bool { return f.beenSet }

// StringArrayFlags collects strings from repeated or comma separated flag
// values.
type StringArrayFlags struct {
	Array   []string
	beenSet bool
}

func (f *StringArrayFlags) Set(valueStr string) error {
	if !f.beenSet {
		f.beenSet = true
		f.Array = nil
	}
	for _, s := range strings.Split(valueStr, ",") {
		if s = strings.TrimSpace(s); s != "" {
			f.Array = append(f.Array, s)
		}
	}
	return nil
}

func (f *StringArrayFlags) String() string {
	return strings.Join(f.Array, ",")
}

func (f *StringArrayFlags) IsSet() bool { return f.beenSet }

// AxisFlag parses a grid axis written as "n:low:high".
type AxisFlag struct {
	Axis    fit.Axis
	beenSet bool
}

func (f *AxisFlag) Set(valueStr string) error {
	parts := strings.Split(valueStr, ":")
	if len(parts) != 3 {
		return fmt.Errorf("axis %q is not of the form n:low:high", valueStr)
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return err
	}
	low, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return err
	}
	high, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return err
	}
	if n < 1 || high < low {
		return fmt.Errorf("invalid axis %q", valueStr)
	}
	f.Axis = fit.Axis{N: n, Low: low, High: high}
	f.beenSet = true
	return nil
}

func (f *AxisFlag) String() string {
	if !f.beenSet {
		return ""
	}
	return f.Axis.String()
}

func (f *AxisFlag) IsSet() bool { return f.beenSet }
