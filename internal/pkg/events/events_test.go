package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	. "github.com/smartystreets/goconvey/convey"

	"adreel/internal/config"
)

func TestKafkaPublisher(t *testing.T) {
	Convey("Kafka 事件投递", t, func() {
		producer := mocks.NewSyncProducer(t, nil)
		p := NewKafkaPublisherWithProducer(producer, "render-events")
		defer p.Close()

		Convey("以 job_id 为 key 投递 JSON", func() {
			producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
				var e Event
				if err := json.Unmarshal(val, &e); err != nil {
					return err
				}
				if e.Type != EventRenderCompleted || e.JobID != "job1" {
					return sarama.ErrInvalidMessage
				}
				return nil
			})

			err := p.Publish(context.Background(), Event{Type: EventRenderCompleted, JobID: "job1", OutputPath: "/out/final.mp4"})
			So(err, ShouldBeNil)
		})

		Convey("投递失败返回错误", func() {
			producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

			err := p.Publish(context.Background(), Event{Type: EventRenderFailed, JobID: "job2"})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("缺少 broker 时无法创建", t, func() {
		_, err := NewKafkaPublisher(&config.KafkaConfig{Topic: "render-events"})
		So(err, ShouldNotBeNil)
	})
}
