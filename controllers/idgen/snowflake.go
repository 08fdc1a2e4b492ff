package idgen

import (
	"log"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
)

// Init prepares the snowflake node. Safe to call more than once; only the
// first call takes effect.
func Init() {
	InitNode(1)
}

func InitNode(id int64) {
	nodeOnce.Do(func() {
		var err error
		node, err = snowflake.NewNode(id)
		if err != nil {
			log.Fatalf("Failed to init Snowflake: %v", err)
		}
	})
}

func GenerateID() int64 {
	Init()
	return node.Generate().Int64()
}
