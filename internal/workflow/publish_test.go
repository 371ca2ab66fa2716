package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"kycflow/internal/kyc/models"
	"kycflow/internal/workflow/metrics"
	"kycflow/internal/workflow/mocks"
)

func TestPublishersFanOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	res := &models.CaseResult{CaseID: "case-1"}

	kafka := mocks.NewMockResultPublisher(ctrl)
	kafka.EXPECT().Publish(gomock.Any(), res).Return(errors.New("broker unavailable"))
	kafka.EXPECT().Name().Return("kafka").AnyTimes()

	archive := mocks.NewMockResultPublisher(ctrl)
	archive.EXPECT().Publish(gomock.Any(), res).Return(nil)
	archive.EXPECT().Name().Return("s3").AnyTimes()

	m := metrics.New(prometheus.NewRegistry())
	pubs := NewPublishers(nil, m, kafka, nil, archive)

	assert.Equal(t, 2, pubs.Len())
	assert.Equal(t, 1, pubs.Publish(context.Background(), res))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishFailures.WithLabelValues("kafka")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PublishFailures.WithLabelValues("s3")))
}

func TestNilPublishersIsNoop(t *testing.T) {
	var pubs *Publishers
	assert.Equal(t, 0, pubs.Publish(context.Background(), &models.CaseResult{}))
}
