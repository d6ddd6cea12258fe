package pricing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const paapiTarget = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems"

// PAAPIConfig holds Amazon Product Advertising API credentials.
type PAAPIConfig struct {
	AccessKey  string
	SecretKey  string
	PartnerTag string
	Host       string // default webservices.amazon.com
	Region     string // default us-east-1
}

// PAAPIProvider looks prices up via Amazon PAAPI v5 GetItems, signing
// each request with SigV4.
type PAAPIProvider struct {
	config     PAAPIConfig
	httpClient *http.Client
	now        func() time.Time
}

func NewPAAPIProvider(config PAAPIConfig) *PAAPIProvider {
	if config.Host == "" {
		config.Host = "webservices.amazon.com"
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	return &PAAPIProvider{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

type paapiResponse struct {
	ItemsResult struct {
		Items []struct {
			Offers struct {
				Listings []struct {
					Price struct {
						Amount *float64 `json:"Amount"`
					} `json:"Price"`
				} `json:"Listings"`
			} `json:"Offers"`
		} `json:"Items"`
	} `json:"ItemsResult"`
}

func (p *PAAPIProvider) Price(ctx context.Context, asin string) (float64, error) {
	payload, err := json.Marshal(map[string]any{
		"ItemIds":     []string{asin},
		"PartnerTag":  p.config.PartnerTag,
		"PartnerType": "Associates",
		"Marketplace": "www.amazon.com",
		"Resources":   []string{"Offers.Listings.Price"},
	})
	if err != nil {
		return 0, fmt.Errorf("marshal paapi request: %w", err)
	}

	url := fmt.Sprintf("https://%s/paapi5/getitems", p.config.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create paapi request: %w", err)
	}
	for k, v := range p.signedHeaders(payload) {
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: read response: %v", ErrPriceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: paapi status %d", ErrPriceUnavailable, resp.StatusCode)
	}

	var parsed paapiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("%w: parse response: %v", ErrPriceUnavailable, err)
	}

	items := parsed.ItemsResult.Items
	if len(items) == 0 || len(items[0].Offers.Listings) == 0 || items[0].Offers.Listings[0].Price.Amount == nil {
		return 0, ErrPriceUnavailable
	}
	return *items[0].Offers.Listings[0].Price.Amount, nil
}

// signedHeaders builds the SigV4 signature PAAPI requires.
func (p *PAAPIProvider) signedHeaders(payload []byte) map[string]string {
	now := p.now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	const (
		contentType   = "application/json; charset=utf-8"
		signedHeaders = "content-type;host;x-amz-date;x-amz-target"
		service       = "ProductAdvertisingAPI"
		algorithm     = "AWS4-HMAC-SHA256"
	)

	canonicalHeaders := fmt.Sprintf(
		"content-type:%s\nhost:%s\nx-amz-date:%s\nx-amz-target:%s\n",
		contentType, p.config.Host, amzDate, paapiTarget,
	)
	payloadHash := sha256.Sum256(payload)
	canonicalRequest := fmt.Sprintf(
		"POST\n/paapi5/getitems\n\n%s\n%s\n%s",
		canonicalHeaders, signedHeaders, hex.EncodeToString(payloadHash[:]),
	)

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, p.config.Region, service)
	requestHash := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := fmt.Sprintf("%s\n%s\n%s\n%s",
		algorithm, amzDate, credentialScope, hex.EncodeToString(requestHash[:]))

	key := hmacSHA256([]byte("AWS4"+p.config.SecretKey), dateStamp)
	key = hmacSHA256(key, p.config.Region)
	key = hmacSHA256(key, service)
	key = hmacSHA256(key, "aws4_request")
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	return map[string]string{
		"Content-Type": contentType,
		"X-Amz-Date":   amzDate,
		"X-Amz-Target": paapiTarget,
		"Authorization": fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
			algorithm, p.config.AccessKey, credentialScope, signedHeaders, signature),
	}
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}
