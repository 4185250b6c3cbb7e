package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lectern/internal/lesson"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List the lessons in the curriculum",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadCurriculum(cmd)
		if err != nil {
			return err
		}
		catalog := lesson.NewCatalog(res.Lessons)
		if catalog.Len() == 0 {
			fmt.Println("No lessons found.")
			return nil
		}

		fmt.Printf("%-18s  %-4s  %-24s  %s\n", "Course", "Seq", "ID", "Title")
		fmt.Println(strings.Repeat("─", 80))
		for _, l := range catalog.All() {
			fmt.Printf("%-18s  %-4d  %-24s  %s\n", truncate(l.CourseID, 18), l.Sequence, truncate(l.ID, 24), l.Title)
		}
		if n := len(res.Errors); n > 0 {
			fmt.Printf("\n%d invalid lesson file(s); run `lectern lessons validate` for details.\n", n)
		}
		return nil
	},
}

var lessonsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every lesson file against the lesson schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadCurriculum(cmd)
		if err != nil {
			return err
		}
		for _, fe := range res.Errors {
			fmt.Println(fe.File)
			for _, p := range fe.Errors {
				fmt.Println("  -", p)
			}
		}
		dups := lesson.NewCatalog(res.Lessons).Duplicates()
		for _, id := range dups {
			fmt.Println("duplicate lesson id:", id)
		}

		fmt.Printf("%d valid, %d invalid\n", len(res.Lessons), len(res.Errors))
		if len(res.Errors) > 0 || len(dups) > 0 {
			return fmt.Errorf("curriculum has problems")
		}
		return nil
	},
}

func loadCurriculum(cmd *cobra.Command) (*lesson.LoadResult, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	res, err := lesson.Load(cfg.Curriculum)
	if err != nil {
		return nil, fmt.Errorf("load curriculum %q: %w", cfg.Curriculum, err)
	}
	return res, nil
}

func init() {
	lessonsCmd.AddCommand(lessonsValidateCmd)
}
