package export

import "context"

// StageName identifies one publish stage.
type StageName string

// Canonical stage names.
const (
	StageTeardown     StageName = "teardown"
	StageSetup        StageName = "setup"
	StageCopyAssets   StageName = "copy_assets"
	StageCopyPublic   StageName = "copy_public"
	StageWriteIndex   StageName = "write_index"
	StageWritePages   StageName = "write_pages"
	StageWriteSitemap StageName = "write_sitemap"
	StageWriteReadme  StageName = "write_readme"
	StageCleanup      StageName = "cleanup"
	StageCheckLinks   StageName = "check_links"
)

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   func(r *run, ctx context.Context) error
}

func publishStages(opts Options) []StageDef {
	stages := make([]StageDef, 0, 10)
	if opts.Clean {
		stages = append(stages, StageDef{StageTeardown, (*run).teardown})
	}
	stages = append(stages,
		StageDef{StageSetup, (*run).setup},
		StageDef{StageCopyAssets, (*run).copyAssets},
		StageDef{StageCopyPublic, (*run).copyPublic},
		StageDef{StageWriteIndex, (*run).writeIndex},
		StageDef{StageWritePages, (*run).writePages},
		StageDef{StageWriteSitemap, (*run).writeSitemap},
		StageDef{StageWriteReadme, (*run).writeReadme},
		StageDef{StageCleanup, (*run).cleanup},
	)
	if opts.CheckLinks {
		stages = append(stages, StageDef{StageCheckLinks, (*run).checkLinks})
	}
	return stages
}

func processStages() []StageDef {
	return []StageDef{
		{StageSetup, (*run).setup},
		{StageCopyPublic, (*run).copyPublic},
		{StageCopyAssets, (*run).copyAssets},
		{StageCleanup, (*run).cleanup},
	}
}
