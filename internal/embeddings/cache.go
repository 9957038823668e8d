package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spigell/talentmatch/internal/matching"
)

// Kind names what an embedding was computed for.
type Kind string

const (
	KindCandidate Kind = "candidate"
	KindJob       Kind = "job"
)

var errCorruptEntry = errors.New("corrupt embedding cache entry")

// Cache stores embedding vectors by key. Get reports a miss with ok=false and no error.
type Cache interface {
	Get(ctx context.Context, key string) (vec matching.Vector, ok bool, err error)
	Set(ctx context.Context, key string, vec matching.Vector) error
}

// ModelID names the vector space of a model. Models configured with an
// output dimensionality get it appended, so "gemini-embedding-001@768" and
// "gemini-embedding-001@1536" never share cache entries.
func ModelID(model string, dimensions int) string {
	if dimensions <= 0 {
		return model
	}
	return model + "@" + strconv.Itoa(dimensions)
}

// Key builds the cache key for an embedding. It changes whenever the text or
// the model changes. Pass a ModelID as model.
func Key(kind Kind, tenant, id, model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return strings.Join([]string{
		string(kind),
		tenant,
		id,
		model,
		hex.EncodeToString(sum[:])[:16],
	}, ":")
}

func encode(vec matching.Vector) []byte {
	buf := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decode(data []byte) (matching.Vector, error) {
	if len(data) == 0 || len(data)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", errCorruptEntry, len(data))
	}
	vec := make(matching.Vector, len(data)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return vec, nil
}
