package timeseal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"filippo.io/age/armor"
	"github.com/drand/tlock"
	tlockHttp "github.com/drand/tlock/networks/http"
)

// Seal timelock-encrypts payload so it becomes decryptable once the drand
// network produces the given round. The capsule is opaque to the escrow
// engine; it is stored on the challenge record and decrypted by anyone
// after the round lands.
func Seal(ctx context.Context, network NetworkInfo, round uint64, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}
	client, err := newClient(network)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := client.Encrypt(&buf, bytes.NewReader(payload), round); err != nil {
		return nil, fmt.Errorf("tlock encryption failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Open decrypts a sealed capsule, accepting both binary and ASCII-armored
// age encodings. It fetches the round's beacon from the network, so it only
// succeeds once the sealed round has been produced.
func Open(ctx context.Context, network NetworkInfo, capsule []byte) ([]byte, error) {
	client, err := newClient(network)
	if err != nil {
		return nil, err
	}

	var src io.Reader
	buffered := bufio.NewReader(bytes.NewReader(capsule))
	if peek, _ := buffered.Peek(len(armor.Header)); string(peek) == armor.Header {
		src = armor.NewReader(buffered)
	} else {
		src = buffered
	}

	var plaintext bytes.Buffer
	if err := client.Decrypt(&plaintext, src); err != nil {
		return nil, fmt.Errorf("tlock decryption failed: %w", err)
	}
	return plaintext.Bytes(), nil
}

func newClient(network NetworkInfo) (*tlock.Tlock, error) {
	if len(network.Endpoints) == 0 {
		return nil, fmt.Errorf("no drand endpoints provided")
	}

	chainHashHex := fmt.Sprintf("%x", network.ChainHash)
	net, err := tlockHttp.NewNetwork(network.Endpoints[0], chainHashHex)
	if err != nil {
		return nil, fmt.Errorf("failed to create network client for %s: %w", network.Endpoints[0], err)
	}

	client := tlock.New(net).Strict()
	return &client, nil
}

// EncodeWitness serializes a factor pair as two length-prefixed big-endian
// integers, the payload format for sealed witnesses.
func EncodeWitness(p, q *big.Int) []byte {
	pb, qb := p.Bytes(), q.Bytes()
	out := make([]byte, 0, 8+len(pb)+len(qb))
	out = binary.BigEndian.AppendUint32(out, uint32(len(pb)))
	out = append(out, pb...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(qb)))
	out = append(out, qb...)
	return out
}

// DecodeWitness parses a payload produced by EncodeWitness.
func DecodeWitness(payload []byte) (p, q *big.Int, err error) {
	read := func(buf []byte) (*big.Int, []byte, error) {
		if len(buf) < 4 {
			return nil, nil, fmt.Errorf("witness payload truncated")
		}
		n := binary.BigEndian.Uint32(buf)
		buf = buf[4:]
		if uint32(len(buf)) < n {
			return nil, nil, fmt.Errorf("witness payload truncated")
		}
		return new(big.Int).SetBytes(buf[:n]), buf[n:], nil
	}

	p, rest, err := read(payload)
	if err != nil {
		return nil, nil, err
	}
	q, rest, err = read(rest)
	if err != nil {
		return nil, nil, err
	}
	if len(rest) != 0 {
		return nil, nil, fmt.Errorf("witness payload has %d trailing bytes", len(rest))
	}
	return p, q, nil
}
