package format

import "fmt"

func errUnsupportedText(k Kind) error {
	return fmt.Errorf("format: %q is not a textual formatter", string(k))
}

func errUnsupportedBinary(k Kind) error {
	return fmt.Errorf("format: %q is not a binary formatter", string(k))
}
