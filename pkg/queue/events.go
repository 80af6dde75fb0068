package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishDatasetProcessed 发布 cv.dataset.processed 事件。
// 在记录解析、加密并写入数据库之后调用，通知下游分析管道。
// 可通过可选项 opts 注入 TraceID、Producer 等头部信息。
func PublishDatasetProcessed(pub message.Publisher, payload DatasetProcessedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicDatasetProcessed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicDatasetProcessed, msg)
}

// PublishDatasetProcessFailed 发布 cv.dataset.process.failed 事件。
// 解析或入库失败时调用；失败可能早于数据集落库，负载只要求能定位到用户和文件。
func PublishDatasetProcessFailed(pub message.Publisher, payload DatasetProcessFailedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicDatasetProcessFailed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicDatasetProcessFailed, msg)
}

// PublishDatasetDeleted 发布 cv.dataset.deleted 事件。
func PublishDatasetDeleted(pub message.Publisher, payload DatasetDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicDatasetDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicDatasetDeleted, msg)
}

// PublishDatasetAccessed 发布 cv.dataset.accessed 事件。
// 预览、下载、记录读取都会触发，默认配置下关闭。
func PublishDatasetAccessed(pub message.Publisher, payload DatasetAccessedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicDatasetAccessed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicDatasetAccessed, msg)
}

// PublishImageMatched 发布 cv.image.matched 事件。
func PublishImageMatched(pub message.Publisher, payload ImageMatchedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicImageMatched, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicImageMatched, msg)
}

// PublishImageMatchFailed 发布 cv.image.match.failed 事件。
func PublishImageMatchFailed(pub message.Publisher, payload ImageMatchFailedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicImageMatchFailed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicImageMatchFailed, msg)
}

// PublishMappingProcessed 发布 cv.mapping.processed 事件。
func PublishMappingProcessed(pub message.Publisher, payload MappingProcessedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicMappingProcessed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicMappingProcessed, msg)
}

// ParseDatasetProcessed 将 Watermill 消息解析为强类型 Envelope（DatasetProcessedPayload）。
func ParseDatasetProcessed(msg *message.Message) (Message[DatasetProcessedPayload], error) {
	return ParseWatermillMessage[DatasetProcessedPayload](msg)
}

// ParseDatasetDeleted 将 Watermill 消息解析为强类型 Envelope（DatasetDeletedPayload）。
func ParseDatasetDeleted(msg *message.Message) (Message[DatasetDeletedPayload], error) {
	return ParseWatermillMessage[DatasetDeletedPayload](msg)
}

// ParseImageMatched 将 Watermill 消息解析为强类型 Envelope（ImageMatchedPayload）。
func ParseImageMatched(msg *message.Message) (Message[ImageMatchedPayload], error) {
	return ParseWatermillMessage[ImageMatchedPayload](msg)
}

// ParseDatasetProcessFailed 将 Watermill 消息解析为强类型 Envelope（DatasetProcessFailedPayload）。
func ParseDatasetProcessFailed(msg *message.Message) (Message[DatasetProcessFailedPayload], error) {
	return ParseWatermillMessage[DatasetProcessFailedPayload](msg)
}

// ParseImageMatchFailed 将 Watermill 消息解析为强类型 Envelope（ImageMatchFailedPayload）。
func ParseImageMatchFailed(msg *message.Message) (Message[ImageMatchFailedPayload], error) {
	return ParseWatermillMessage[ImageMatchFailedPayload](msg)
}
