package nacos

import (
	"errors"
	"testing"

	"github.com/nacos-group/nacos-sdk-go/v2/clients/config_client"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	config_client.IConfigClient

	data     string
	err      error
	listened vo.ConfigParam
	canceled bool
	closed   bool
}

func (f *fakeClient) GetConfig(p vo.ConfigParam) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.data, nil
}

func (f *fakeClient) ListenConfig(p vo.ConfigParam) error {
	f.listened = p
	return nil
}

func (f *fakeClient) CancelListenConfig(vo.ConfigParam) error {
	f.canceled = true
	return nil
}

func (f *fakeClient) CloseClient() { f.closed = true }

func TestServerConfigs(t *testing.T) {
	scs, err := serverConfigs([]string{"127.0.0.1:8848", "nacos.internal:9848"})
	require.NoError(t, err)
	require.Len(t, scs, 2)
	assert.Equal(t, "127.0.0.1", scs[0].IpAddr)
	assert.EqualValues(t, 8848, scs[0].Port)
	assert.Equal(t, "nacos.internal", scs[1].IpAddr)

	for _, bad := range [][]string{nil, {"no-port"}, {"h:0"}, {"h:abc"}} {
		_, err := serverConfigs(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestSource_FetchWatchClose(t *testing.T) {
	cli := &fakeClient{data: "log:\n  level: debug\n"}
	s := newSource(cli, Config{DataID: "neuroq.yaml"})
	assert.Equal(t, DefaultGroup, s.param.Group)

	data, err := s.Fetch()
	require.NoError(t, err)
	assert.Contains(t, data, "debug")

	var got string
	require.NoError(t, s.Watch(func(d string) { got = d }))
	assert.Equal(t, "neuroq.yaml", cli.listened.DataId)
	require.NotNil(t, cli.listened.OnChange)
	cli.listened.OnChange("", DefaultGroup, "neuroq.yaml", "log:\n  level: warn\n")
	assert.Contains(t, got, "warn")

	s.Close()
	assert.True(t, cli.canceled)
	assert.True(t, cli.closed)
}

func TestSource_FetchError(t *testing.T) {
	s := newSource(&fakeClient{err: errors.New("timeout")}, Config{DataID: "x", Group: "G"})
	_, err := s.Fetch()
	assert.Error(t, err)
}

func TestNewSource_RequiresDataID(t *testing.T) {
	_, err := NewSource(Config{Servers: []string{"127.0.0.1:8848"}})
	assert.Error(t, err)
}
