package types

// OTPRequest 申请一个一次性验证码.
type OTPRequest struct {
	// Purpose 验证码用途，限定可枚举的业务场景
	Purpose string `json:"purpose" rule:"required,oneof=download delete share"`
}

// OTPRequestResponse 验证码签发结果.
// 验证码本身经由带外通道送达，响应只携带有效期.
type OTPRequestResponse struct {
	Purpose   string `json:"purpose"`
	ExpiresIn int    `json:"expires_in"` // 秒
}

// OTPVerifyRequest 校验并消费验证码.
type OTPVerifyRequest struct {
	Purpose string `json:"purpose" rule:"required,oneof=download delete share"`
	Code    string `json:"code"    rule:"required,len=6,numeric"`
}

// OTPVerifyResponse 校验结果.
type OTPVerifyResponse struct {
	Valid bool `json:"valid"`
}
