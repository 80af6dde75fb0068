package mq_test

import (
	"testing"

	"github.com/yeisme/cropvault/pkg/configs"
	"github.com/yeisme/cropvault/pkg/internal/storage/mq"
)

// TestGetRegisteredMQTypes 包加载即注册全部后端.
func TestGetRegisteredMQTypes(t *testing.T) {
	registered := make(map[configs.MQType]bool)
	for _, mqType := range mq.GetRegisteredMQTypes() {
		registered[mqType] = true
	}

	for _, want := range []configs.MQType{configs.MQTypeNATS, configs.MQTypeRedis} {
		if !registered[want] {
			t.Errorf("mq type %s not registered", want)
		}
	}
}
