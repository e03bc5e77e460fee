package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/locvowork/mywork_tools/internal/config"
	"github.com/locvowork/mywork_tools/internal/domain"
)

// MailDoc is the indexed form of a message.
type MailDoc struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	SenderEmail string    `json:"sender_email"`
	SenderName  string    `json:"sender_name"`
	To          []string  `json:"to"`
	Cc          []string  `json:"cc,omitempty"`
	Attachments []string  `json:"attachments,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
}

func newMailDoc(m domain.MailMessage) MailDoc {
	doc := MailDoc{
		ID:          m.ID,
		Subject:     m.Subject,
		Body:        m.Body,
		SenderEmail: m.Sender.Email,
		SenderName:  m.Sender.Name,
		Attachments: m.Attachments,
		ReceivedAt:  m.ReceivedAt,
	}
	for _, c := range m.To {
		doc.To = append(doc.To, c.Email)
	}
	for _, c := range m.Cc {
		doc.Cc = append(doc.Cc, c.Email)
	}
	return doc
}

func (d MailDoc) message() domain.MailMessage {
	m := domain.MailMessage{
		ID:          d.ID,
		Subject:     d.Subject,
		Body:        d.Body,
		ReceivedAt:  d.ReceivedAt,
		Sender:      domain.Contact{Email: d.SenderEmail, Name: d.SenderName},
		Attachments: d.Attachments,
	}
	for _, e := range d.To {
		m.To = append(m.To, domain.Contact{Email: e})
	}
	for _, e := range d.Cc {
		m.Cc = append(m.Cc, domain.Contact{Email: e})
	}
	return m
}

// ElasticSearchClient indexes saved messages for keyword search.
type ElasticSearchClient struct {
	client *elastic.Client
	index  string
}

var _ domain.MailIndex = (*ElasticSearchClient)(nil)

// NewElasticSearchClient creates a client for Elasticsearch 7.x.
func NewElasticSearchClient(cfg config.ElasticConfig) (*ElasticSearchClient, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.URL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	}
	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}
	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return &ElasticSearchClient{client: client, index: cfg.Index}, nil
}

// Index stores m under its message id.
func (es *ElasticSearchClient) Index(ctx context.Context, m domain.MailMessage) error {
	_, err := es.client.Index().
		Index(es.index).
		Id(m.ID).
		BodyJson(newMailDoc(m)).
		Refresh("true").
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index message %s: %w", m.ID, err)
	}
	return nil
}

// BulkIndex stores many messages in one request.
func (es *ElasticSearchClient) BulkIndex(ctx context.Context, msgs []domain.MailMessage) error {
	bulkRequest := es.client.Bulk()
	for _, m := range msgs {
		bulkRequest = bulkRequest.Add(elastic.NewBulkIndexRequest().
			Index(es.index).
			Id(m.ID).
			Doc(newMailDoc(m)))
	}
	if bulkRequest.NumberOfActions() == 0 {
		return nil
	}

	bulkResponse, err := bulkRequest.Refresh("true").Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}
	if bulkResponse.Errors {
		for _, item := range bulkResponse.Items {
			for _, op := range item {
				if op.Error != nil {
					return fmt.Errorf("bulk item %s failed: %s", op.Id, op.Error.Reason)
				}
			}
		}
	}
	return nil
}

// Search matches keyword against subject, body and sender, newest first.
func (es *ElasticSearchClient) Search(ctx context.Context, keyword string, limit int) ([]domain.MailMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	query := elastic.NewMultiMatchQuery(keyword, "subject", "body", "sender_name", "sender_email")

	searchResult, err := es.client.Search().
		Index(es.index).
		Query(query).
		Sort("received_at", false).
		Size(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	msgs := make([]domain.MailMessage, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		var doc MailDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, fmt.Errorf("decoding hit %s: %w", hit.Id, err)
		}
		msgs = append(msgs, doc.message())
	}
	return msgs, nil
}
