package analysis

import "fmt"

// KeySlice returns every character at index i with i mod keyLength == position,
// in original order: the characters enciphered by one key slot.
func KeySlice(text []rune, position, keyLength int) ([]rune, error) {
	if keyLength < 1 || position < 0 || position >= keyLength {
		return nil, fmt.Errorf("%w: position %d, key length %d", ErrInvalidSlice, position, keyLength)
	}
	out := make([]rune, 0, len(text)/keyLength+1)
	for i := position; i < len(text); i += keyLength {
		out = append(out, text[i])
	}
	return out, nil
}
