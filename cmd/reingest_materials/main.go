package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/app"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/services"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

// reingest_materials re-runs document ingestion for course materials, by
// default only those whose last run ended in error or never finished.
func main() {
	var courses idList
	var dryRun, all bool
	var limit int
	flag.Var(&courses, "course", "course_id to reingest (repeatable; default all courses)")
	flag.BoolVar(&all, "all", false, "reingest every doc material, not only failed or unfinished ones")
	flag.BoolVar(&dryRun, "dry-run", false, "print planned runs without ingesting")
	flag.IntVar(&limit, "limit", 0, "limit number of materials processed")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()

	var ids []uuid.UUID
	if len(courses) > 0 {
		for _, s := range courses {
			id, err := uuid.Parse(strings.TrimSpace(s))
			if err == nil && id != uuid.Nil {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			fmt.Println("no valid course_id values provided")
			return
		}
	} else {
		var rows []*types.Course
		if err := application.DB.WithContext(ctx).Find(&rows).Error; err != nil {
			fmt.Printf("load courses: %v\n", err)
			os.Exit(1)
		}
		for _, c := range rows {
			ids = append(ids, c.ID)
		}
	}

	processed, failed := 0, 0
	for _, courseID := range ids {
		materials, err := application.Repos.Material.ListByCourse(ctx, nil, courseID)
		if err != nil {
			fmt.Printf("list materials for course %s: %v\n", courseID, err)
			continue
		}
		for _, m := range materials {
			if limit > 0 && processed >= limit {
				fmt.Printf("limit reached; processed=%d failed=%d\n", processed, failed)
				return
			}
			if !services.NeedsReingest(m, all) {
				continue
			}
			if dryRun {
				rec, _ := m.IngestionRecord()
				fmt.Printf("[dry-run] reingest course_id=%s material_id=%s status=%q\n", courseID, m.ID, rec.Status)
				processed++
				continue
			}
			processed++
			if err := application.Services.Ingestion.Reingest(ctx, m); err != nil {
				failed++
				fmt.Printf("reingest failed course_id=%s material_id=%s: %v\n", courseID, m.ID, err)
				continue
			}
			fmt.Printf("reingested course_id=%s material_id=%s\n", courseID, m.ID)
		}
	}

	fmt.Printf("done; processed=%d failed=%d\n", processed, failed)
}
