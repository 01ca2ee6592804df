package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Skshirin/factify/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSPublisherSendSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{
		id:       "queue",
		typ:      TypeSQS,
		queueURL: "https://example.com/queue",
		client:   client,
		log:      logger.NopLogger{},
	}

	evt := sampleEvent()
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["fingerprint"]
	if !ok || aws.ToString(attr.StringValue) != evt.Fingerprint {
		t.Fatalf("fingerprint attribute missing or wrong: %#v", attr)
	}
	if aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if body := aws.ToString(client.input.MessageBody); !strings.Contains(body, `"model_used":"distilbert"`) {
		t.Fatalf("MessageBody missing verdict: %s", body)
	}
}

func TestSQSPublisherFIFOIDs(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{
		id:       "fifo",
		typ:      TypeSQS,
		queueURL: "https://example.com/verdicts.fifo",
		client:   client,
		log:      logger.NopLogger{},
	}
	evt := sampleEvent()
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := aws.ToString(client.input.MessageDeduplicationId); got != evt.Fingerprint {
		t.Fatalf("dedupe id = %q", got)
	}
	if got := aws.ToString(client.input.MessageGroupId); got != string(evt.InputKind) {
		t.Fatalf("group id = %q", got)
	}
	if attr := client.input.MessageAttributes["label"]; aws.ToString(attr.StringValue) != LabelReal {
		t.Fatalf("label attribute = %#v", attr)
	}
}

func TestSQSPublisherSendError(t *testing.T) {
	pub := &sqsPublisher{
		queueURL: "https://example.com/queue",
		client:   &fakeSQSClient{err: errors.New("boom")},
		log:      logger.NopLogger{},
	}
	if err := pub.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestSNSPublisherSendSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      logger.NopLogger{},
	}

	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["source"]
	if !ok || aws.ToString(attr.StringValue) != "ensemble" {
		t.Fatalf("source attribute missing or wrong: %#v", attr)
	}
	if msg := aws.ToString(client.input.Message); !strings.Contains(msg, `"input_kind":"text"`) {
		t.Fatalf("Message missing input kind: %s", msg)
	}
}

func TestSNSPublisherSendError(t *testing.T) {
	pub := &snsPublisher{
		topicARN: "arn:aws:sns:::topic",
		client:   &fakeSNSClient{err: errors.New("boom")},
		log:      logger.NopLogger{},
	}
	if err := pub.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error from Publish")
	}
}
