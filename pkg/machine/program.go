package machine

import (
	"encoding/binary"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// ReadProgram reads a machine binary: a sequence of big-endian 16-bit
// words. A trailing odd byte is dropped with a warning.
func ReadProgram(r io.Reader) ([]uint16, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}
	if len(data)%2 != 0 {
		log.Warnf("program has odd length %d, dropping trailing byte", len(data))
		data = data[:len(data)-1]
	}
	if len(data)/2 > RAMSize {
		return nil, fmt.Errorf("program has %d words, RAM holds %d", len(data)/2, RAMSize)
	}
	words := make([]uint16, len(data)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return words, nil
}
