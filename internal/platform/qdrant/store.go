package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

const (
	// PayloadPointKey holds the caller's point id; qdrant ids must be uuids or integers.
	PayloadPointKey   = "_point_id"
	maxErrorBodyBytes = 1024
)

var pointIDNamespaceUUID = uuid.MustParse("6a0f3c4e-8d1b-4f7a-9a51-2c6d8e0b7f13")

// Point is one vector with its payload.
type Point struct {
	ID      string
	Values  []float32
	Payload map[string]any
}

type Match struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Store talks to qdrant's REST API. Each logical corpus is its own collection.
type Store struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type searchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

func NewStore(log *logger.Logger, cfg Config) (*Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg.Distance = canonicalDistance(cfg.Distance)
	s := &Store{
		log:     log.With("service", "QdrantStore"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	return s, nil
}

// Ready probes /readyz.
func (s *Store) Ready(ctx context.Context) error {
	const op = "ready"
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, "", OperationErrorTransportFailed, "build ready request failed", err)
	}
	s.authorize(req)
	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "", "qdrant ready check failed", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorRequestFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", resp.StatusCode),
		}
	}
	return nil
}

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	const op = "collection_exists"
	if err := validateCollectionName(op, name); err != nil {
		return false, err
	}
	err := s.doJSON(ctx, op, name, http.MethodGet, collectionPath(name, ""), nil, nil)
	if err == nil {
		return true, nil
	}
	var typed *OperationError
	if errors.As(err, &typed) && typed.IsNotFound() {
		return false, nil
	}
	return false, err
}

// EnsureCollection creates name with the configured vector params if absent.
func (s *Store) EnsureCollection(ctx context.Context, name string) error {
	const op = "ensure_collection"
	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	req := map[string]any{
		"vectors": map[string]any{
			"size":     s.cfg.VectorDim,
			"distance": s.cfg.Distance,
		},
	}
	if err := s.doJSON(ctx, op, name, http.MethodPut, collectionPath(name, ""), req, nil); err != nil {
		return err
	}
	s.log.Info("Qdrant collection created", "collection", name, "vector_dim", s.cfg.VectorDim, "distance", s.cfg.Distance)
	return nil
}

// Upsert writes points into collection. Point ids are mapped to deterministic
// uuids so re-upserting the same id overwrites.
func (s *Store) Upsert(ctx context.Context, collection string, points []Point) error {
	const op = "upsert"
	if err := validateCollectionName(op, collection); err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}
	wire := make([]map[string]any, 0, len(points))
	for _, p := range points {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return opErr(op, collection, OperationErrorValidation, "point id is required", nil)
		}
		if len(p.Values) != s.cfg.VectorDim {
			return opErr(op, collection, OperationErrorValidation,
				fmt.Sprintf("point %q dimension mismatch: expected=%d got=%d", id, s.cfg.VectorDim, len(p.Values)), nil)
		}
		payload := clonePayload(p.Payload)
		payload[PayloadPointKey] = id
		wire = append(wire, map[string]any{
			"id":      PointID(collection, id),
			"vector":  p.Values,
			"payload": payload,
		})
	}
	return s.doJSON(ctx, op, collection, http.MethodPut, collectionPath(collection, "/points?wait=true"), map[string]any{"points": wire}, nil)
}

// Search returns the topK nearest points, best first.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Match, error) {
	const op = "search"
	if err := validateCollectionName(op, collection); err != nil {
		return nil, err
	}
	if len(vector) != s.cfg.VectorDim {
		return nil, opErr(op, collection, OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", s.cfg.VectorDim, len(vector)), nil)
	}
	if topK <= 0 {
		topK = 10
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
	}
	if f := TranslateFilter(filter); f != nil {
		req["filter"] = f
	}
	var raw []searchResultItem
	if err := s.doJSON(ctx, op, collection, http.MethodPost, collectionPath(collection, "/points/search"), req, &raw); err != nil {
		return nil, err
	}
	out := make([]Match, 0, len(raw))
	for _, item := range raw {
		id, _ := item.Payload[PayloadPointKey].(string)
		if id == "" {
			id = decodePointID(item.ID)
		}
		out = append(out, Match{ID: id, Score: item.Score, Payload: item.Payload})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// DeleteByFilter removes matching points. A missing collection is not an error.
func (s *Store) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	const op = "delete_by_filter"
	if err := validateCollectionName(op, collection); err != nil {
		return err
	}
	f := TranslateFilter(filter)
	if f == nil {
		return opErr(op, collection, OperationErrorValidation, "refusing to delete with an empty filter", nil)
	}
	err := s.doJSON(ctx, op, collection, http.MethodPost, collectionPath(collection, "/points/delete?wait=true"), map[string]any{"filter": f}, nil)
	return ignoreNotFound(err)
}

// DeleteCollection drops name. A missing collection is not an error.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	const op = "delete_collection"
	if err := validateCollectionName(op, name); err != nil {
		return err
	}
	return ignoreNotFound(s.doJSON(ctx, op, name, http.MethodDelete, collectionPath(name, ""), nil, nil))
}

// PointID maps a caller id to the uuid stored in qdrant.
func PointID(collection, id string) string {
	return uuid.NewSHA1(pointIDNamespaceUUID, []byte(collection+"|"+id)).String()
}

func (s *Store) authorize(req *http.Request) {
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}
}

func (s *Store) doJSON(ctx context.Context, op, collection, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, collection, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, collection, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, collection, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*maxErrorBodyBytes))
	if readErr != nil {
		return opErr(op, collection, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorRequestFailed,
			Operation:  op,
			Collection: collection,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return opErr(op, collection, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(env.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorRequestFailed,
			Operation:  op,
			Collection: collection,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}
	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return opErr(op, collection, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, collection, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, collection, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, collection, OperationErrorTimeout, message, err)
	}
	return opErr(op, collection, OperationErrorTransportFailed, message, err)
}

func ignoreNotFound(err error) error {
	var typed *OperationError
	if errors.As(err, &typed) && typed.IsNotFound() {
		return nil
	}
	return err
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}
	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") || strings.EqualFold(statusString, "acknowledged") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}
	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil && strings.TrimSpace(statusObject.Error) != "" {
		return strings.TrimSpace(statusObject.Error)
	}
	return fmt.Sprintf("qdrant status=%s", status)
}

func validateCollectionName(op, name string) error {
	if strings.TrimSpace(name) == "" {
		return opErr(op, name, OperationErrorValidation, "collection name is required", nil)
	}
	return nil
}

func collectionPath(name, suffix string) string {
	return "/collections/" + url.PathEscape(name) + suffix
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func clonePayload(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	var idNumber int64
	if err := json.Unmarshal(raw, &idNumber); err == nil {
		return fmt.Sprintf("%d", idNumber)
	}
	return strings.TrimSpace(string(raw))
}
