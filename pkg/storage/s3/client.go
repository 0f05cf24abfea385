package s3

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/spacestar-shop/backend/pkg/config"
	"github.com/spacestar-shop/backend/pkg/logger"
)

const (
	serviceName      = "s3"
	algorithm        = "AWS4-HMAC-SHA256"
	unsignedPayload  = "UNSIGNED-PAYLOAD"
	amzDateFormat    = "20060102T150405Z"
	scopeDateFormat  = "20060102"
	requestTimeout   = 30 * time.Second
	maxErrorBodySize = 2048
)

// Client uploads objects and mints presigned download URLs against the S3 REST API.
type Client struct {
	httpClient *http.Client
	region     string
	bucket     string
	accessKey  string
	secretKey  string
	endpoint   string
	urlExpiry  time.Duration
	now        func() time.Time
}

func NewClient(cfg config.S3Config, logg *logger.Logger) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket name is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("s3 credentials are required")
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	client := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		region:     cfg.Region,
		bucket:     cfg.Bucket,
		accessKey:  cfg.AccessKeyID,
		secretKey:  cfg.SecretAccessKey,
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		urlExpiry:  expiry,
		now:        time.Now,
	}

	if logg != nil {
		logg.Info(context.Background(), "s3 client initialized")
	}
	return client, nil
}

// Put uploads the object bytes under key and returns the key on success.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", errors.New("object key is required")
	}

	endpoint := c.baseURL() + "/" + uriEncodePath(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build put request: %w", err)
	}

	payloadHash := hashHex(data)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("x-amz-content-sha256", payloadHash)

	c.signRequest(req, payloadHash)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", fmt.Errorf("put object failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return key, nil
}

// PresignGet returns a time-limited download URL for the given key.
func (c *Client) PresignGet(key string) (string, error) {
	if key == "" {
		return "", errors.New("object key is required")
	}

	now := c.now().UTC()
	amzDate := now.Format(amzDateFormat)
	scope := strings.Join([]string{now.Format(scopeDateFormat), c.region, serviceName, "aws4_request"}, "/")

	host := c.host()
	path := c.objectPath(key)

	query := url.Values{}
	query.Set("X-Amz-Algorithm", algorithm)
	query.Set("X-Amz-Credential", c.accessKey+"/"+scope)
	query.Set("X-Amz-Date", amzDate)
	query.Set("X-Amz-Expires", fmt.Sprintf("%d", int(c.urlExpiry.Seconds())))
	query.Set("X-Amz-SignedHeaders", "host")

	canonicalRequest := strings.Join([]string{
		http.MethodGet,
		path,
		canonicalQuery(query),
		"host:" + host + "\n",
		"host",
		unsignedPayload,
	}, "\n")

	signature := c.sign(now, scope, canonicalRequest)
	query.Set("X-Amz-Signature", signature)

	return "https://" + host + path + "?" + canonicalQuery(query), nil
}

// objectPath returns the request path for a key, including the bucket segment
// when a custom endpoint uses path-style addressing.
func (c *Client) objectPath(key string) string {
	if c.endpoint != "" {
		return "/" + c.bucket + "/" + uriEncodePath(key)
	}
	return "/" + uriEncodePath(key)
}

func (c *Client) signRequest(req *http.Request, payloadHash string) {
	now := c.now().UTC()
	amzDate := now.Format(amzDateFormat)
	scope := strings.Join([]string{now.Format(scopeDateFormat), c.region, serviceName, "aws4_request"}, "/")

	req.Header.Set("x-amz-date", amzDate)
	req.Host = c.host()

	headerNames := []string{"host"}
	canonicalHeaders := "host:" + req.Host + "\n"
	var extra []string
	for name := range req.Header {
		lower := strings.ToLower(name)
		if lower == "host" {
			continue
		}
		extra = append(extra, lower)
	}
	sort.Strings(extra)
	for _, name := range extra {
		canonicalHeaders += name + ":" + strings.TrimSpace(req.Header.Get(name)) + "\n"
	}
	headerNames = append(headerNames, extra...)
	sort.Strings(headerNames)
	signedHeaders := strings.Join(headerNames, ";")

	canonicalRequest := strings.Join([]string{
		req.Method,
		req.URL.EscapedPath(),
		canonicalQuery(req.URL.Query()),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	signature := c.sign(now, scope, canonicalRequest)
	req.Header.Set("Authorization", fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, c.accessKey, scope, signedHeaders, signature,
	))
}

func (c *Client) sign(now time.Time, scope, canonicalRequest string) string {
	stringToSign := strings.Join([]string{
		algorithm,
		now.Format(amzDateFormat),
		scope,
		hashHex([]byte(canonicalRequest)),
	}, "\n")

	dateKey := hmacSHA256([]byte("AWS4"+c.secretKey), now.Format(scopeDateFormat))
	regionKey := hmacSHA256(dateKey, c.region)
	serviceKey := hmacSHA256(regionKey, serviceName)
	signingKey := hmacSHA256(serviceKey, "aws4_request")

	return hex.EncodeToString(hmacSHA256(signingKey, stringToSign))
}

func (c *Client) baseURL() string {
	if c.endpoint != "" {
		return c.endpoint + "/" + c.bucket
	}
	return "https://" + c.host()
}

func (c *Client) host() string {
	if c.endpoint != "" {
		parsed, err := url.Parse(c.endpoint)
		if err == nil && parsed.Host != "" {
			return parsed.Host
		}
		return strings.TrimPrefix(strings.TrimPrefix(c.endpoint, "https://"), "http://")
	}
	return fmt.Sprintf("%s.s3.%s.amazonaws.com", c.bucket, c.region)
}

func canonicalQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		for _, value := range values[key] {
			parts = append(parts, uriEncode(key)+"="+uriEncode(value))
		}
	}
	return strings.Join(parts, "&")
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

// uriEncode percent-encodes per SigV4 rules (everything except unreserved chars).
func uriEncode(value string) string {
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9',
			ch == '-', ch == '.', ch == '_', ch == '~':
			b.WriteByte(ch)
		default:
			fmt.Fprintf(&b, "%%%02X", ch)
		}
	}
	return b.String()
}

// uriEncodePath encodes each path segment while preserving separators.
func uriEncodePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = uriEncode(segment)
	}
	return strings.Join(segments, "/")
}
