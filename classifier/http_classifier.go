package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bluele/gcache"
	log "github.com/sirupsen/logrus"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultCacheSize = 10000
	defaultCacheTTL  = 10 * time.Minute
)

// Config parameters of the HTTP classifier
// + URL: endpoint that receives {"features": [...]} and answers a Prediction
// + CacheSize: amount of vectors whose prediction is kept, 0 disables the cache
type Config struct {
	URL       string        `yaml:"url" validate:"omitempty,url"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cache_size" validate:"gte=0"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

func DefaultConfig() Config {
	return Config{
		Timeout:   defaultTimeout,
		CacheSize: defaultCacheSize,
		CacheTTL:  defaultCacheTTL,
	}
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

// HTTPClassifier scores vectors with a remote model service. Identical vectors are answered from an
// LRU cache while the entry is fresh
type HTTPClassifier struct {
	url        string
	httpClient *http.Client
	cache      gcache.Cache
}

func NewHTTPClassifier(cfg Config) *HTTPClassifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	hc := &HTTPClassifier{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
	}

	if cfg.CacheSize > 0 {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		hc.cache = gcache.New(cfg.CacheSize).
			LRU().
			Expiration(ttl).
			Build()
	}
	return hc
}

// PredictProba sends the vector to the model service
func (hc *HTTPClassifier) PredictProba(ctx context.Context, vector []float64) (Prediction, error) {
	if hc.url == "" {
		return Prediction{}, fmt.Errorf("%w: no url configured", ErrClassifierUnavailable)
	}

	cacheKey := vectorKey(vector)
	if hc.cache != nil {
		if cached, err := hc.cache.Get(cacheKey); err == nil {
			log.Debugf("[classifier][method: PredictProba] cache hit for vector of %d features", len(vector))
			return cached.(Prediction), nil
		}
	}

	prediction, err := hc.request(ctx, vector)
	if err != nil {
		return Prediction{}, err
	}

	if hc.cache != nil {
		if err = hc.cache.Set(cacheKey, prediction); err != nil {
			log.Warnf("[classifier][method: PredictProba][status: WARNING] error caching prediction: %s", err.Error())
		}
	}
	return prediction, nil
}

func (hc *HTTPClassifier) request(ctx context.Context, vector []float64) (Prediction, error) {
	body, err := json.Marshal(predictRequest{Features: vector})
	if err != nil {
		return Prediction{}, fmt.Errorf("error marshalling features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hc.url, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %s", ErrClassifierUnavailable, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.httpClient.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %s", ErrClassifierUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Prediction{}, fmt.Errorf("%w: status %d: %s", ErrClassifierUnavailable, resp.StatusCode, strings.TrimSpace(string(message)))
	}

	var prediction Prediction
	if err = json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return Prediction{}, fmt.Errorf("%w: %s", ErrInvalidPrediction, err.Error())
	}
	if len(prediction.Probabilities) == 0 {
		return Prediction{}, fmt.Errorf("%w: no probabilities", ErrInvalidPrediction)
	}
	if prediction.Class == "" {
		prediction.Class = TopK(prediction.Probabilities, 1)[0].Destination
	}
	return prediction, nil
}

func vectorKey(vector []float64) string {
	values := make([]string, len(vector))
	for idx, value := range vector {
		values[idx] = strconv.FormatFloat(value, 'g', -1, 64)
	}
	return strings.Join(values, ",")
}
