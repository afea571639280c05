package nacos

import (
	"net"
	"strconv"

	"NeuroQ/tools/errs"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/config_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
)

const DefaultGroup = "DEFAULT_GROUP"

type Config struct {
	Servers   []string // host:port
	Namespace string
	Group     string
	DataID    string
	Username  string
	Password  string
	TimeoutMs uint64
	CacheDir  string
	LogDir    string
}

// Source reads one YAML document from the Nacos config center and
// follows its changes.
type Source struct {
	cli   config_client.IConfigClient
	param vo.ConfigParam
}

func NewSource(c Config) (*Source, error) {
	if c.DataID == "" {
		return nil, errs.ErrBadRequest.WrapMsg("nacos data id is required")
	}
	scs, err := serverConfigs(c.Servers)
	if err != nil {
		return nil, err
	}
	cli, err := clients.NewConfigClient(vo.NacosClientParam{
		ClientConfig:  clientConfig(c),
		ServerConfigs: scs,
	})
	if err != nil {
		return nil, errs.WrapMsg(err, "create nacos config client")
	}
	return newSource(cli, c), nil
}

func newSource(cli config_client.IConfigClient, c Config) *Source {
	group := c.Group
	if group == "" {
		group = DefaultGroup
	}
	return &Source{cli: cli, param: vo.ConfigParam{DataId: c.DataID, Group: group}}
}

func clientConfig(c Config) *constant.ClientConfig {
	timeout := c.TimeoutMs
	if timeout == 0 {
		timeout = 5000
	}
	cacheDir, logDir := c.CacheDir, c.LogDir
	if cacheDir == "" {
		cacheDir = "nacos/cache"
	}
	if logDir == "" {
		logDir = "nacos/log"
	}
	return constant.NewClientConfig(
		constant.WithNamespaceId(c.Namespace),
		constant.WithTimeoutMs(timeout),
		constant.WithNotLoadCacheAtStart(true),
		constant.WithLogLevel("warn"),
		constant.WithCacheDir(cacheDir),
		constant.WithLogDir(logDir),
		constant.WithUsername(c.Username),
		constant.WithPassword(c.Password),
	)
}

func serverConfigs(addrs []string) ([]constant.ServerConfig, error) {
	if len(addrs) == 0 {
		return nil, errs.ErrBadRequest.WrapMsg("nacos servers are required")
	}
	out := make([]constant.ServerConfig, 0, len(addrs))
	for _, a := range addrs {
		host, p, err := net.SplitHostPort(a)
		if err != nil {
			return nil, errs.WrapMsg(err, "bad nacos address", "addr", a)
		}
		port, err := strconv.ParseUint(p, 10, 64)
		if err != nil || port == 0 || port > 65535 {
			return nil, errs.ErrBadRequest.WrapMsg("bad nacos port", "addr", a)
		}
		out = append(out, *constant.NewServerConfig(host, port))
	}
	return out, nil
}

// Fetch 首次读取
func (s *Source) Fetch() (string, error) {
	data, err := s.cli.GetConfig(s.param)
	if err != nil {
		return "", errs.WrapMsg(err, "nacos get config", "data_id", s.param.DataId, "group", s.param.Group)
	}
	return data, nil
}

// Watch 监听配置变化，回调在 SDK 的 goroutine 里执行
func (s *Source) Watch(onChange func(data string)) error {
	p := s.param
	p.OnChange = func(_, _, _, data string) { onChange(data) }
	if err := s.cli.ListenConfig(p); err != nil {
		return errs.WrapMsg(err, "nacos listen config", "data_id", p.DataId)
	}
	return nil
}

func (s *Source) Close() {
	_ = s.cli.CancelListenConfig(s.param)
	s.cli.CloseClient()
}
