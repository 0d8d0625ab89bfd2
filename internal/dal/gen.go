package dal

import (
	"gorm.io/gen"
	"gorm.io/gorm"

	"github.com/lazylions/lazy-leaderboard/internal/models"
)

// GenExecute 生成 gorm-gen 查询代码
// 命令使用: go run ./cmd/gen -out internal/dal/query
func GenExecute(outPath string, conn *gorm.DB) {
	g := gen.NewGenerator(gen.Config{
		OutPath: outPath,
		Mode:    gen.WithoutContext | gen.WithDefaultQuery | gen.WithQueryInterface,
	})

	g.UseDB(conn)

	g.ApplyBasic(
		models.EnsNameCache{},
	)

	g.Execute()
}
