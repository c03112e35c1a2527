package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/portal-auth/internal/kv"
)

// Attribute names of the auth_kv table. Single string hash key `k`; string
// values live in `v`, counters in `n`, and `expires_at` is the table's native
// TTL attribute (epoch seconds).
const (
	attrKey     = "k"
	attrValue   = "v"
	attrCounter = "n"
	attrExpires = "expires_at"
)

// KVStore is the DynamoDB-backed kv.Store. DynamoDB purges TTL-expired items
// lazily, so every read and conditional write re-checks expires_at against
// the clock; an expired-but-unpurged item behaves like an absent one.
type KVStore struct {
	client    *dynamodb.Client
	tableName string
	now       func() time.Time
}

var _ kv.Store = (*KVStore)(nil)

func NewKVStore(client *dynamodb.Client, tableName string) *KVStore {
	return &KVStore{client: client, tableName: tableName, now: time.Now}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            strKey(attrKey, key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	if out.Item == nil || s.expired(out.Item) {
		return "", kv.ErrNotFound
	}
	val, ok := out.Item[attrValue].(*types.AttributeValueMemberS)
	if !ok {
		return "", kv.ErrNotFound
	}
	return val.Value, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			attrKey:     &types.AttributeValueMemberS{Value: key},
			attrValue:   &types.AttributeValueMemberS{Value: value},
			attrExpires: s.expiry(ttl),
		},
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			attrKey:     &types.AttributeValueMemberS{Value: key},
			attrValue:   &types.AttributeValueMemberS{Value: value},
			attrExpires: s.expiry(ttl),
		},
		ConditionExpression: aws.String("attribute_not_exists(#k) OR #exp <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#k":   attrKey,
			"#exp": attrExpires,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": s.nowAttr(),
		},
	})
	if err != nil {
		if isConditionalFailure(err) {
			return false, nil
		}
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return true, nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       strKey(attrKey, key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) DeleteIfEquals(ctx context.Context, key, expected string) (bool, error) {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 strKey(attrKey, key),
		ConditionExpression: aws.String("#v = :expected AND #exp > :now"),
		ExpressionAttributeNames: map[string]string{
			"#v":   attrValue,
			"#exp": attrExpires,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberS{Value: expected},
			":now":      s.nowAttr(),
		},
	})
	if err != nil {
		if isConditionalFailure(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete-if-equals %s: %w", key, err)
	}
	return true, nil
}

func (s *KVStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := s.increment(ctx, key, ttl)
	if err != nil && isConditionalFailure(err) {
		// A TTL-expired counter is still physically present. Clear it and
		// start a fresh window.
		if derr := s.Delete(ctx, key); derr != nil {
			return 0, derr
		}
		n, err = s.increment(ctx, key, ttl)
	}
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return n, nil
}

func (s *KVStore) increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 strKey(attrKey, key),
		UpdateExpression:    aws.String("SET #exp = if_not_exists(#exp, :exp) ADD #n :one"),
		ConditionExpression: aws.String("attribute_not_exists(#k) OR #exp > :now"),
		ExpressionAttributeNames: map[string]string{
			"#k":   attrKey,
			"#n":   attrCounter,
			"#exp": attrExpires,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":exp": s.expiry(ttl),
			":now": s.nowAttr(),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	counter, ok := out.Attributes[attrCounter].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("counter attribute missing for %s", key)
	}
	return strconv.ParseInt(counter.Value, 10, 64)
}

func (s *KVStore) expiry(ttl time.Duration) types.AttributeValue {
	return &types.AttributeValueMemberN{
		Value: strconv.FormatInt(s.now().Add(ttl).Unix(), 10),
	}
}

func (s *KVStore) nowAttr() types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(s.now().Unix(), 10)}
}

func (s *KVStore) expired(item map[string]types.AttributeValue) bool {
	exp, ok := item[attrExpires].(*types.AttributeValueMemberN)
	if !ok {
		return true
	}
	at, err := strconv.ParseInt(exp.Value, 10, 64)
	if err != nil {
		return true
	}
	return at <= s.now().Unix()
}

func isConditionalFailure(err error) bool {
	var ccfe *types.ConditionalCheckFailedException
	return errors.As(err, &ccfe)
}
