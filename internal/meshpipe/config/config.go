// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package config

import (
	"sync"

	"github.com/spf13/viper"
)

var (
	config *NodeConfig
	once   sync.Once
)

// NodeConfig is the full configuration of one meshpipe node.
type NodeConfig struct {
	Server struct {
		Name    string `json:"name" yaml:"name"`
		Address string `json:"address" yaml:"address"`
	} `json:"server" yaml:"server"`
	Admin struct {
		Address string `json:"address" yaml:"address"`
	} `json:"admin" yaml:"admin"`
	RateLimit struct {
		Enabled    bool    `json:"enabled" yaml:"enabled"`
		Capacity   int64   `json:"capacity" yaml:"capacity"`
		RefillRate float64 `json:"refillRate" yaml:"refillRate"`
	} `json:"rateLimit" yaml:"rateLimit"`
	Executor struct {
		Workers   int `json:"workers" yaml:"workers"`
		QueueSize int `json:"queueSize" yaml:"queueSize"`
	} `json:"executor" yaml:"executor"`
	ServiceDiscovery struct {
		Address string `json:"address" yaml:"address"`
	} `json:"serviceDiscovery" yaml:"serviceDiscovery"`
}

// GetConfig loads the node configuration once. A missing config file leaves
// the defaults in place; a malformed one panics.
func GetConfig() *NodeConfig {
	once.Do(func() {
		viper.SetConfigName("meshpipe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/meshpipe/")

		viper.SetDefault("server.name", "meshpipe")
		viper.SetDefault("server.address", ":7000")
		viper.SetDefault("admin.address", ":8081")
		viper.SetDefault("rateLimit.enabled", false)
		viper.SetDefault("rateLimit.capacity", 1000)
		viper.SetDefault("rateLimit.refillRate", 500)
		viper.SetDefault("executor.workers", 8)
		viper.SetDefault("executor.queueSize", 256)

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				panic(err)
			}
		}

		config = &NodeConfig{}
		if err := viper.Unmarshal(config); err != nil {
			panic(err)
		}
	})
	return config
}
