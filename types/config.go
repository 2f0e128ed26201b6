// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"io/ioutil"

	tml "github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config 配置文件
type Config struct {
	Title       string       `toml:"title"`
	Log         *Log         `toml:"log"`
	Store       *Store       `toml:"store"`
	Exec        *Exec        `toml:"exec"`
	Fees        *FeeConfig   `toml:"fees"`
	Throttle    *Throttle    `toml:"throttle"`
	RecordCache *RecordCache `toml:"recordCache"`
	Metrics     *Metrics     `toml:"metrics"`
	Genesis     *Genesis     `toml:"genesis"`
}

// Log 日志配置
type Log struct {
	// 日志级别，支持debug(dbug)/info/warn/error(eror)/crit
	Loglevel        string `toml:"loglevel"`
	LogConsoleLevel string `toml:"logConsoleLevel"`
	// 日志文件名，可带目录，所有生成的日志文件都放到此目录下
	LogFile string `toml:"logFile"`
	// 单个日志文件的最大值（单位：兆）
	MaxFileSize uint32 `toml:"maxFileSize"`
	// 最多保存的历史日志文件个数
	MaxBackups uint32 `toml:"maxBackups"`
	// 最多保存的历史日志消息（单位：天）
	MaxAge uint32 `toml:"maxAge"`
	// 日志文件名是否使用本地时间（否则使用UTC时间）
	LocalTime bool `toml:"localTime"`
	// 历史日志文件是否压缩（压缩格式为gz）
	Compress bool `toml:"compress"`
	// 是否打印调用源文件和行号
	CallerFile bool `toml:"callerFile"`
	// 是否打印调用方法
	CallerFunction bool `toml:"callerFunction"`
	// 按模块覆盖文件日志级别, 例如 execs = "debug"
	Modules map[string]string `toml:"modules"`
}

// Store 持久化状态的数据库配置
type Store struct {
	Name    string `toml:"name"`
	Driver  string `toml:"driver"`
	DbPath  string `toml:"dbPath"`
	DbCache int32  `toml:"dbCache"`
}

// NodeConfig consensus node id and the account its node fees go to
type NodeConfig struct {
	NodeID  int64 `toml:"nodeID"`
	Account int64 `toml:"account"`
}

// Exec 执行器配置
type Exec struct {
	Nodes               []*NodeConfig `toml:"nodes"`
	FundingAccount      int64         `toml:"fundingAccount"`
	Treasury            int64         `toml:"treasury"`
	SuperUsers          []int64       `toml:"superUsers"`
	MaxChildRecords     int32         `toml:"maxChildRecords"`
	MaxPrecedingRecords int32         `toml:"maxPrecedingRecords"`
	RecoveryMode        bool          `toml:"recoveryMode"`
	SoftwareVersion     string        `toml:"softwareVersion"`
	MaxValidDuration    int64         `toml:"maxValidDuration"`
	MinValidDuration    int64         `toml:"minValidDuration"`
	MaxMemoBytes        int32         `toml:"maxMemoBytes"`
	FirstUserEntity     int64         `toml:"firstUserEntity"`
	GasPerByte          int64         `toml:"gasPerByte"`
	BaseGas             int64         `toml:"baseGas"`
}

// FeeConfig fee schedule in tinycents plus the exchange rate to tinybars
type FeeConfig struct {
	HbarEquiv int32          `toml:"hbarEquiv"`
	CentEquiv int32          `toml:"centEquiv"`
	Schedule  []*FeeSchedule `toml:"schedule"`
}

// FeeSchedule price of one functionality; per byte prices apply to the body size
type FeeSchedule struct {
	Operation         string `toml:"operation"`
	NodeFee           int64  `toml:"nodeFee"`
	NetworkFee        int64  `toml:"networkFee"`
	ServiceFee        int64  `toml:"serviceFee"`
	NetworkFeePerByte int64  `toml:"networkFeePerByte"`
}

// Throttle throttle definitions
type Throttle struct {
	Buckets []*ThrottleBucket `toml:"buckets"`
}

// ThrottleBucket a leaky bucket shared by the operations of its groups
type ThrottleBucket struct {
	Name          string           `toml:"name"`
	BurstPeriodMs int64            `toml:"burstPeriodMs"`
	Groups        []*ThrottleGroup `toml:"groups"`
}

// ThrottleGroup operations admitted at OpsPerSec within a bucket
type ThrottleGroup struct {
	OpsPerSec  int64    `toml:"opsPerSec"`
	Operations []string `toml:"operations"`
}

// RecordCache 去重缓存配置
type RecordCache struct {
	Capacity int32 `toml:"capacity"`
}

// Metrics 指标配置
type Metrics struct {
	Enable   bool  `toml:"enable"`
	Duration int64 `toml:"duration"`
}

// Genesis initial accounts seeded into an empty store
type Genesis struct {
	Accounts []*GenesisAccount `toml:"accounts"`
}

// GenesisAccount keys are hex encoded; Ed25519Seed is for development profiles
type GenesisAccount struct {
	Num         int64  `toml:"num"`
	Balance     int64  `toml:"balance"`
	Ed25519     string `toml:"ed25519"`
	Secp256k1   string `toml:"secp256k1"`
	Ed25519Seed string `toml:"ed25519Seed"`
}

// DefaultConfig config with every default filled in
func DefaultConfig() *Config {
	cfg := &Config{}
	FillDefault(cfg)
	return cfg
}

// FillDefault 补全未配置的项
func FillDefault(cfg *Config) {
	if cfg.Title == "" {
		cfg.Title = "local"
	}
	if cfg.Log == nil {
		cfg.Log = &Log{}
	}
	if cfg.Store == nil {
		cfg.Store = &Store{}
	}
	if cfg.Store.Name == "" {
		cfg.Store.Name = "state"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memdb"
	}
	if cfg.Store.DbPath == "" {
		cfg.Store.DbPath = "datadir"
	}
	if cfg.Store.DbCache == 0 {
		cfg.Store.DbCache = 128
	}
	if cfg.Exec == nil {
		cfg.Exec = &Exec{}
	}
	exec := cfg.Exec
	if exec.FundingAccount == 0 {
		exec.FundingAccount = 98
	}
	if exec.Treasury == 0 {
		exec.Treasury = 2
	}
	if exec.MaxChildRecords == 0 {
		exec.MaxChildRecords = 50
	}
	if exec.MaxPrecedingRecords == 0 {
		exec.MaxPrecedingRecords = 3
	}
	if exec.SoftwareVersion == "" {
		exec.SoftwareVersion = "0.1.0"
	}
	if exec.MaxValidDuration == 0 {
		exec.MaxValidDuration = 180
	}
	if exec.MinValidDuration == 0 {
		exec.MinValidDuration = 15
	}
	if exec.MaxMemoBytes == 0 {
		exec.MaxMemoBytes = 100
	}
	if exec.FirstUserEntity == 0 {
		exec.FirstUserEntity = 1001
	}
	if exec.GasPerByte == 0 {
		exec.GasPerByte = 16
	}
	if exec.BaseGas == 0 {
		exec.BaseGas = 21000
	}
	if cfg.Fees == nil {
		cfg.Fees = &FeeConfig{}
	}
	if cfg.Fees.HbarEquiv == 0 {
		cfg.Fees.HbarEquiv = 1
	}
	if cfg.Fees.CentEquiv == 0 {
		cfg.Fees.CentEquiv = 12
	}
	if cfg.Throttle == nil {
		cfg.Throttle = &Throttle{}
	}
	if cfg.RecordCache == nil {
		cfg.RecordCache = &RecordCache{}
	}
	if cfg.RecordCache.Capacity == 0 {
		cfg.RecordCache.Capacity = 10240
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &Metrics{}
	}
	if cfg.Metrics.Duration == 0 {
		cfg.Metrics.Duration = 60
	}
	if cfg.Genesis == nil {
		cfg.Genesis = &Genesis{}
	}
}

// IsSuperUser treasury and configured system accounts
func (e *Exec) IsSuperUser(num int64) bool {
	if num == e.Treasury {
		return true
	}
	for _, su := range e.SuperUsers {
		if su == num {
			return true
		}
	}
	return false
}

// NodeAccount account of the node, nil when the node is unknown
func (e *Exec) NodeAccount(nodeID int64) *AccountID {
	for _, n := range e.Nodes {
		if n.NodeID == nodeID {
			return NewAccountID(n.Account)
		}
	}
	return nil
}

func initCfgString(cfgstring string) (*Config, error) {
	var cfg Config
	if _, err := tml.Decode(cfgstring, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	FillDefault(&cfg)
	return &cfg, nil
}

// InitCfg 初始化配置
func InitCfg(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return initCfgString(string(data))
}

// InitCfgString 初始化配置
func InitCfgString(cfgstring string) (*Config, error) {
	return initCfgString(cfgstring)
}
