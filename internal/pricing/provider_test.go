package pricing

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	price float64
	err   error
	calls int
}

func (s *stubProvider) Price(ctx context.Context, asin string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.price, nil
}

func TestCachingProvider_MemoizesSuccess(t *testing.T) {
	inner := &stubProvider{price: 129.99}
	p := NewCachingProvider(inner, time.Minute)

	first, err := p.Price(context.Background(), "B0ABCD1234")
	require.NoError(t, err)
	second, err := p.Price(context.Background(), "B0ABCD1234")
	require.NoError(t, err)

	assert.Equal(t, 129.99, first)
	assert.Equal(t, 129.99, second)
	assert.Equal(t, 1, inner.calls, "second lookup should hit the cache")
}

func TestCachingProvider_DoesNotCacheFailures(t *testing.T) {
	inner := &stubProvider{err: ErrPriceUnavailable}
	p := NewCachingProvider(inner, time.Minute)

	_, err := p.Price(context.Background(), "B0ABCD1234")
	require.ErrorIs(t, err, ErrPriceUnavailable)
	_, err = p.Price(context.Background(), "B0ABCD1234")
	require.ErrorIs(t, err, ErrPriceUnavailable)

	assert.Equal(t, 2, inner.calls)
}

func TestNullProvider_AlwaysUnavailable(t *testing.T) {
	_, err := NewNullProvider().Price(context.Background(), "B0ABCD1234")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestPAAPIProvider_SignedHeaders(t *testing.T) {
	p := NewPAAPIProvider(PAAPIConfig{
		AccessKey:  "AKIDEXAMPLE",
		SecretKey:  "secret",
		PartnerTag: "tag-20",
	})
	p.now = func() time.Time {
		return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	}

	payload := []byte(`{"ItemIds":["B0ABCD1234"]}`)
	headers := p.signedHeaders(payload)

	assert.Equal(t, "application/json; charset=utf-8", headers["Content-Type"])
	assert.Equal(t, "20260315T103000Z", headers["X-Amz-Date"])
	assert.Equal(t, paapiTarget, headers["X-Amz-Target"])

	auth := headers["Authorization"]
	assert.Contains(t, auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20260315/us-east-1/ProductAdvertisingAPI/aws4_request")
	assert.Contains(t, auth, "SignedHeaders=content-type;host;x-amz-date;x-amz-target")
	assert.Regexp(t, regexp.MustCompile(`Signature=[0-9a-f]{64}$`), auth)

	// Same inputs, same signature.
	assert.Equal(t, auth, p.signedHeaders(payload)["Authorization"])
}

func TestPAAPIResponseParsing(t *testing.T) {
	body := `{"ItemsResult":{"Items":[{"Offers":{"Listings":[{"Price":{"Amount":219.5}}]}}]}}`

	var parsed paapiResponse
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))

	require.Len(t, parsed.ItemsResult.Items, 1)
	require.NotNil(t, parsed.ItemsResult.Items[0].Offers.Listings[0].Price.Amount)
	assert.Equal(t, 219.5, *parsed.ItemsResult.Items[0].Offers.Listings[0].Price.Amount)
}
