package config

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestConfigRoundTripProperty 序列化后再解析应得到相同配置
func TestConfigRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("config round-trip preserves data", prop.ForAll(
		func(server ServerConfig, aspects []AspectConfig) bool {
			cfg := DefaultConfig()
			cfg.Server = server
			cfg.Aspects = aspects

			data, err := cfg.Serialize()
			if err != nil {
				return false
			}
			parsed, err := ParseConfig(data)
			if err != nil {
				return false
			}
			if diff := cmp.Diff(cfg, parsed); diff != "" {
				t.Logf("round-trip mismatch (-want +got):\n%s", diff)
				return false
			}
			return true
		},
		genServerConfig(),
		gen.SliceOfN(3, genAspectConfig()),
	))

	properties.TestingRun(t)
}

func genServerConfig() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(1024, 65535),
		gen.IntRange(1, 120),
		gen.IntRange(1, 120),
		gen.Bool(),
		gen.Bool(),
	).Map(func(v []interface{}) ServerConfig {
		return ServerConfig{
			Address:      ":" + strconv.Itoa(v[0].(int)),
			ReadTimeout:  time.Duration(v[1].(int)) * time.Second,
			WriteTimeout: time.Duration(v[2].(int)) * time.Second,
			EnableCORS:   v[3].(bool),
			EnableStats:  v[4].(bool),
		}
	})
}

func genAspectConfig() gopter.Gen {
	return gopter.CombineGens(
		gen.Identifier(),
		gen.OneConstOf("before", "after", "wrap"),
		gen.SliceOfN(2, gen.Identifier()),
		gen.AlphaString(),
	).Map(func(v []interface{}) AspectConfig {
		return AspectConfig{
			Controller: v[0].(string),
			Phase:      v[1].(string),
			Actions:    v[2].([]string),
			Script:     "this.set(\"k\", \"" + v[3].(string) + "\")",
		}
	})
}
