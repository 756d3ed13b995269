package tokenizer

import (
	"errors"

	"github.com/pkoukk/tiktoken-go"
)

var errMissingEncoding = errors.New("bpe counter has no encoding")

// bpeCounter counts tokens exactly with a tiktoken encoding. Special-token markers that
// appear in file content are counted as ordinary text.
type bpeCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter bpeCounter) Name() string {
	return counter.name
}

func (counter bpeCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errMissingEncoding
	}
	return len(counter.encoding.Encode(input, nil, nil)), nil
}
