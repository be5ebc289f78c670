// Package ftindex wraps Elasticsearch as the lexical half of the
// hybrid retriever, grounded on
// original_source/.../elasticsearch_service.py's index mappings and
// multi_match queries, re-pointed at github.com/elastic/go-elasticsearch/v8.
package ftindex

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"contractarchive/internal/errs"
)

const (
	ContractsIndex = "contracts"
	ContentsIndex  = "contract_contents"
)

const contractsMapping = `{
  "mappings": {
    "properties": {
      "contract_id": {"type": "integer"},
      "contract_number": {"type": "keyword"},
      "contract_name": {"type": "text", "analyzer": "standard"},
      "contract_type": {"type": "keyword"},
      "keywords": {"type": "text", "analyzer": "standard"},
      "summary": {"type": "text", "analyzer": "standard"},
      "file_name": {"type": "keyword"},
      "upload_time": {"type": "date"},
      "created_at": {"type": "date"}
    }
  }
}`

const contentsMapping = `{
  "mappings": {
    "properties": {
      "chunk_id": {"type": "integer"},
      "contract_id": {"type": "integer"},
      "contract_number": {"type": "keyword"},
      "contract_name": {"type": "keyword"},
      "file_name": {"type": "keyword"},
      "file_format": {"type": "keyword"},
      "upload_time": {"type": "date"},
      "contract_type": {"type": "keyword"},
      "chunk_index": {"type": "integer"},
      "content_text": {"type": "text", "analyzer": "standard"},
      "chunk_type": {"type": "keyword"},
      "chunk_size": {"type": "integer"},
      "created_at": {"type": "date"}
    }
  }
}`

// Index is the lexical search facade over an Elasticsearch cluster.
type Index struct {
	client *elasticsearch.Client
}

// New dials an Elasticsearch cluster at addr.
func New(addr string) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{addr}})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "build elasticsearch client", err)
	}
	return &Index{client: client}, nil
}

// EnsureIndices creates the contracts/contract_contents indices with
// their field mappings if they do not already exist.
func (idx *Index) EnsureIndices(ctx context.Context) error {
	for name, mapping := range map[string]string{ContractsIndex: contractsMapping, ContentsIndex: contentsMapping} {
		exists, err := esapi.IndicesExistsRequest{Index: []string{name}}.Do(ctx, idx.client)
		if err != nil {
			return errs.Wrap(errs.Unavailable, "check index "+name, err)
		}
		exists.Body.Close()
		if exists.StatusCode == 200 {
			continue
		}

		create, err := esapi.IndicesCreateRequest{Index: name, Body: strings.NewReader(mapping)}.Do(ctx, idx.client)
		if err != nil {
			return errs.Wrap(errs.Unavailable, "create index "+name, err)
		}
		defer create.Body.Close()
		if create.IsError() {
			return errs.New(errs.Upstream, "create index "+name+" returned "+create.Status())
		}
	}
	return nil
}

// ContractDoc mirrors the contracts index mapping.
type ContractDoc struct {
	ContractID     int64  `json:"contract_id"`
	ContractNumber string `json:"contract_number"`
	ContractName   string `json:"contract_name"`
	ContractType   string `json:"contract_type"`
	Keywords       string `json:"keywords"`
	Summary        string `json:"summary"`
	FileName       string `json:"file_name"`
	UploadTime     string `json:"upload_time"`
	CreatedAt      string `json:"created_at"`
}

// ContentDoc mirrors the contract_contents index mapping.
type ContentDoc struct {
	ChunkID        int64  `json:"chunk_id"`
	ContractID     int64  `json:"contract_id"`
	ContractNumber string `json:"contract_number"`
	ContractName   string `json:"contract_name"`
	FileName       string `json:"file_name"`
	FileFormat     string `json:"file_format"`
	UploadTime     string `json:"upload_time"`
	ContractType   string `json:"contract_type"`
	ChunkIndex     int    `json:"chunk_index"`
	ContentText    string `json:"content_text"`
	ChunkType      string `json:"chunk_type"`
	ChunkSize      int    `json:"chunk_size"`
	CreatedAt      string `json:"created_at"`
}

// IndexContract upserts one contract header document. Callers are
// expected to have already populated doc.Keywords (runFTSync derives
// it from contract_name+summary before calling in), mirroring
// elasticsearch_service.py's index_contract.
func (idx *Index) IndexContract(ctx context.Context, doc ContractDoc) error {
	return idx.index(ctx, ContractsIndex, fmt.Sprintf("contract_%d", doc.ContractID), doc)
}

// IndexChunk upserts one content-chunk document.
func (idx *Index) IndexChunk(ctx context.Context, doc ContentDoc) error {
	return idx.index(ctx, ContentsIndex, fmt.Sprintf("chunk_%d", doc.ChunkID), doc)
}

func (idx *Index) index(ctx context.Context, index, id string, doc any) error {
	body, err := sonic.Marshal(doc)
	if err != nil {
		return errs.Wrap(errs.Internal, "marshal document", err)
	}
	resp, err := esapi.IndexRequest{Index: index, DocumentID: id, Body: bytes.NewReader(body)}.Do(ctx, idx.client)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "index document", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errs.New(errs.Upstream, "index "+index+" returned "+resp.Status())
	}
	return nil
}

// Hit is one normalized search result, collapsing the ES response
// shape into what the hybrid retriever needs.
type Hit struct {
	ContractID  int64
	ChunkID     int64
	ContentText string
	Highlight   string
	Score       float64
}

// SearchContents runs a keyword multi_match search over contract_contents,
// optionally restricted to contractIDs, mirroring
// elasticsearch_service.py's search_content, including its
// fragment_size-150 highlight on content_text.
func (idx *Index) SearchContents(ctx context.Context, query string, contractIDs []int64, limit int) ([]Hit, error) {
	must := map[string]any{
		"multi_match": map[string]any{
			"query":     query,
			"fields":    []string{"content_text^2", "contract_name", "contract_number"},
			"type":      "best_fields",
			"fuzziness": "AUTO",
		},
	}
	boolQuery := map[string]any{"must": []any{must}}
	if len(contractIDs) > 0 {
		boolQuery["filter"] = []any{map[string]any{"terms": map[string]any{"contract_id": contractIDs}}}
	}
	body := map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"highlight": map[string]any{
			"fields": map[string]any{
				"content_text": map[string]any{
					"fragment_size":       150,
					"number_of_fragments": 3,
				},
			},
		},
		"sort": []any{
			map[string]any{"_score": map[string]any{"order": "desc"}},
			map[string]any{"chunk_index": map[string]any{"order": "asc"}},
		},
		"size": limit,
	}

	payload, err := sonic.Marshal(body)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "marshal search body", err)
	}

	resp, err := esapi.SearchRequest{Index: []string{ContentsIndex}, Body: bytes.NewReader(payload)}.Do(ctx, idx.client)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "search contents", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, errs.New(errs.Upstream, "search contents returned "+resp.Status())
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.Upstream, "read search response", err)
	}
	var parsed searchResponse
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		return nil, errs.Wrap(errs.Upstream, "decode search response", err)
	}

	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		highlight := h.Source.ContentText
		if len(h.Highlight.ContentText) > 0 {
			highlight = strings.Join(h.Highlight.ContentText, " … ")
		}
		hits = append(hits, Hit{
			ContractID:  h.Source.ContractID,
			ChunkID:     h.Source.ChunkID,
			ContentText: h.Source.ContentText,
			Highlight:   highlight,
			Score:       h.Score,
		})
	}
	return hits, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score     float64    `json:"_score"`
			Source    ContentDoc `json:"_source"`
			Highlight struct {
				ContentText []string `json:"content_text"`
			} `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

// DeleteContract removes the contract header doc and every content
// chunk doc belonging to contractID.
func (idx *Index) DeleteContract(ctx context.Context, contractID int64) error {
	del, err := esapi.DeleteRequest{Index: ContractsIndex, DocumentID: "contract_" + strconv.FormatInt(contractID, 10)}.Do(ctx, idx.client)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "delete contract document", err)
	}
	del.Body.Close()

	query := fmt.Sprintf(`{"query":{"term":{"contract_id":%d}}}`, contractID)
	dbq, err := esapi.DeleteByQueryRequest{Index: []string{ContentsIndex}, Body: strings.NewReader(query)}.Do(ctx, idx.client)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "delete content chunks", err)
	}
	defer dbq.Body.Close()
	if dbq.IsError() {
		return errs.New(errs.Upstream, "delete_by_query returned "+dbq.Status())
	}
	return nil
}

// Health pings the cluster.
func (idx *Index) Health(ctx context.Context) error {
	resp, err := esapi.PingRequest{}.Do(ctx, idx.client)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "ping elasticsearch", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errs.New(errs.Unavailable, "elasticsearch ping returned "+resp.Status())
	}
	return nil
}
