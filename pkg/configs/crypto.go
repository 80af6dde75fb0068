package configs

import "github.com/spf13/viper"

const (
	// DefaultCryptoIterations PBKDF2 默认迭代次数.
	DefaultCryptoIterations = 100000
)

// CryptoConfig 敏感基因数据静态加密配置.
// 密钥在进程启动时由 secret 经 PBKDF2 派生一次，之后不可变.
type CryptoConfig struct {
	Secret     string `mapstructure:"secret"     rule:"required"`
	Iterations int    `mapstructure:"iterations" rule:"min=10000"`
}

func (c *CryptoConfig) setDefaults(v *viper.Viper) {
	// 默认密钥仅用于本地开发，生产环境必须通过 CROPVAULT_CRYPTO_SECRET 覆盖
	v.SetDefault("crypto.secret", "dev-only-crop-genetics-secret")
	v.SetDefault("crypto.iterations", DefaultCryptoIterations)
}
