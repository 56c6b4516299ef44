package sink

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/funkybooboo/CS5260-Program2/request"
)

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Table upserts each request as one DynamoDB item keyed by id.
type Table struct {
	client dynamoAPI

	table    string
	tablePtr *string
}

func NewTable(client dynamoAPI, table string) *Table {
	if client == nil {
		panic("dynamodb client is required")
	}
	if strings.TrimSpace(table) == "" {
		panic("table is required")
	}

	t := &Table{client: client, table: table}
	t.tablePtr = &t.table
	return t
}

// Record flattens a request into a single item: the required fields, then
// every attribute as a top-level field. Later attributes overwrite earlier
// fields of the same name, required fields included. JSON numbers become
// DynamoDB numbers with their exact text.
func Record(r request.Request) map[string]any {
	item := make(map[string]any, 4+len(r.OtherAttributes))
	item[request.FieldID] = r.ID
	item[request.FieldOwner] = r.Owner
	item[request.FieldLabel] = r.Label
	item[request.FieldDescription] = r.Description
	for _, a := range r.OtherAttributes {
		item[a.Name] = numbers(a.Value)
	}
	return item
}

// numbers turns every json.Number in v into an attributevalue.Number, so it is
// stored as an exact DynamoDB number rather than a string.
func numbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		return attributevalue.Number(t.String())
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = numbers(t[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = numbers(e)
		}
		return out
	default:
		return v
	}
}

func (t *Table) Persist(ctx context.Context, r request.Request) error {
	item, err := attributevalue.MarshalMap(Record(r))
	if err != nil {
		return &Error{Backend: BackendDynamoDB, Key: r.ID, Err: err}
	}

	if _, err := t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: t.tablePtr,
		Item:      item,
	}); err != nil {
		return &Error{Backend: BackendDynamoDB, Key: r.ID, Err: err}
	}
	return nil
}
