package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/locvowork/payroll/internal/domain"
)

// counterID is the key of the item holding the id sequence in attribute seq.
const counterID int64 = 0

// dynamoAPI is the part of *dynamodb.Client the repository calls.
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type employeeItem struct {
	ID        int64  `dynamodbav:"id"`
	FirstName string `dynamodbav:"firstName"`
	LastName  string `dynamodbav:"lastName"`
	Role      string `dynamodbav:"role"`
}

type counterItem struct {
	Seq int64 `dynamodbav:"seq"`
}

type dynamoEmployeeRepository struct {
	client dynamoAPI
	table  string
}

// NewDynamoEmployeeRepository creates a DynamoDB backed EmployeeRepository on table.
func NewDynamoEmployeeRepository(client *dynamodb.Client, table string) domain.EmployeeRepository {
	return &dynamoEmployeeRepository{client: client, table: table}
}

func (r *dynamoEmployeeRepository) Save(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	if e.IsNew() {
		id, err := r.nextID(ctx)
		if err != nil {
			return domain.Employee{}, err
		}
		e.ID = id
	} else if err := r.raiseCounter(ctx, e.ID); err != nil {
		return domain.Employee{}, err
	}

	item, err := attributevalue.MarshalMap(employeeItem{ID: e.ID, FirstName: e.FirstName, LastName: e.LastName, Role: e.Role})
	if err != nil {
		return domain.Employee{}, fmt.Errorf("failed to marshal employee %d: %w", e.ID, err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return domain.Employee{}, fmt.Errorf("failed to put employee %d: %w", e.ID, err)
	}
	return e, nil
}

func (r *dynamoEmployeeRepository) FindByID(ctx context.Context, id int64) (domain.Employee, bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            itemKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Employee{}, false, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	if len(out.Item) == 0 {
		return domain.Employee{}, false, nil
	}

	var item employeeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return domain.Employee{}, false, fmt.Errorf("failed to unmarshal employee %d: %w", id, err)
	}
	return item.toDomain(), true, nil
}

func (r *dynamoEmployeeRepository) FindAll(ctx context.Context) ([]domain.Employee, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("seq").AttributeNotExists()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scan filter: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.table),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})

	var employees []domain.Employee
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employees: %w", err)
		}

		var items []employeeItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal employees: %w", err)
		}
		for _, item := range items {
			employees = append(employees, item.toDomain())
		}
	}

	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })
	return employees, nil
}

func (r *dynamoEmployeeRepository) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       itemKey(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete employee %d: %w", id, err)
	}
	return nil
}

// nextID atomically increments the counter item and returns the new value.
func (r *dynamoEmployeeRepository) nextID(ctx context.Context) (int64, error) {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Add(expression.Name("seq"), expression.Value(1))).
		Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build counter update: %w", err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       itemKey(counterID),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to allocate employee id: %w", err)
	}

	var counter counterItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &counter); err != nil {
		return 0, fmt.Errorf("failed to read employee id: %w", err)
	}
	return counter.Seq, nil
}

// raiseCounter moves the counter up to id so generated ids never collide with it.
func (r *dynamoEmployeeRepository) raiseCounter(ctx context.Context, id int64) error {
	seq := expression.Name("seq")
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(seq, expression.Value(id))).
		WithCondition(expression.Or(seq.AttributeNotExists(), seq.LessThan(expression.Value(id)))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build counter update: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       itemKey(counterID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		// counter already past id
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to advance employee id counter: %w", err)
	}
	return nil
}

func itemKey(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
	}
}

func (i employeeItem) toDomain() domain.Employee {
	return domain.Employee{ID: i.ID, FirstName: i.FirstName, LastName: i.LastName, Role: i.Role}
}
