package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prostuti-app/prostuti-backend/internal/config"
	"github.com/prostuti-app/prostuti-backend/internal/database"
	"github.com/prostuti-app/prostuti-backend/internal/logger"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a small Bengali-medium demo dataset: two subjects with chapters,
// MCQ and written questions, one published mock test, and a demo student.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	subjectRepo := repository.NewSubjectRepository(pool)
	chapterRepo := repository.NewChapterRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	testRepo := repository.NewTestRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)

	fmt.Println("=== Seeding Demo Data ===")

	// ─── Demo Student ──────────────────────────────────────────────────
	hash, err := bcrypt.GenerateFromPassword([]byte("demo12345"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash demo password")
	}
	student := &model.Student{
		Email:        "demo@prostuti.app",
		Name:         "ডেমো শিক্ষার্থী",
		Phone:        "01700000000",
		PasswordHash: string(hash),
	}
	if err := studentRepo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			fmt.Println("Demo student already exists, skipping")
		} else {
			log.Fatal().Err(err).Msg("Failed to create demo student")
		}
	} else {
		fmt.Printf("Created demo student (id=%d, password: demo12345)\n", student.ID)
	}

	// ─── Subjects & Chapters ───────────────────────────────────────────
	physics := &model.Subject{
		Name:        "পদার্থবিজ্ঞান",
		Description: "এইচএসসি পদার্থবিজ্ঞান প্রথম ও দ্বিতীয় পত্র",
		OrderNum:    1,
		Published:   true,
	}
	if err := subjectRepo.Create(ctx, physics); err != nil {
		log.Fatal().Err(err).Msg("Failed to create subject")
	}

	chemistry := &model.Subject{
		Name:        "রসায়ন",
		Description: "এইচএসসি রসায়ন প্রথম পত্র",
		OrderNum:    2,
		Published:   true,
	}
	if err := subjectRepo.Create(ctx, chemistry); err != nil {
		log.Fatal().Err(err).Msg("Failed to create subject")
	}

	vectors := &model.Chapter{SubjectID: physics.ID, Title: "ভেক্টর", OrderNum: 1, Published: true}
	dynamics := &model.Chapter{SubjectID: physics.ID, Title: "গতিবিদ্যা", OrderNum: 2, Published: true}
	for _, ch := range []*model.Chapter{vectors, dynamics} {
		if err := chapterRepo.Create(ctx, ch); err != nil {
			log.Fatal().Err(err).Msg("Failed to create chapter")
		}
	}

	// ─── Questions ─────────────────────────────────────────────────────
	questions := []*model.Question{
		{
			ChapterID:    vectors.ID,
			QuestionText: "দুটি সমান মানের ভেক্টরের লব্ধি যদি তাদের যেকোনো একটির সমান হয়, তবে তাদের মধ্যবর্তী কোণ কত?",
			QuestionType: model.QuestionTypeMCQ,
			Marks:        1,
			Options: []model.Option{
				{Text: "৬০°"},
				{Text: "৯০°"},
				{Text: "১২০°", IsCorrect: true},
				{Text: "১৮০°"},
			},
			PYQExam:   "ঢাকা বোর্ড",
			PYQYear:   2023,
			Published: true,
		},
		{
			ChapterID:    vectors.ID,
			QuestionText: "স্কেলার গুণফল ও ভেক্টর গুণফলের মধ্যে পার্থক্য লেখ।",
			QuestionType: model.QuestionTypeShort,
			Marks:        2,
			ReferenceAnswer: "স্কেলার গুণফলের ফল একটি স্কেলার রাশি, ভেক্টর গুণফলের ফল একটি ভেক্টর রাশি। " +
				"A·B = AB cosθ এবং A×B = AB sinθ n̂।",
			Published: true,
		},
		{
			ChapterID:    dynamics.ID,
			QuestionText: "সুষম ত্বরণে চলমান একটি বস্তুর আদিবেগ u এবং t সময় পরে বেগ v হলে, ত্বরণ কোনটি?",
			QuestionType: model.QuestionTypeMCQ,
			Marks:        1,
			Options: []model.Option{
				{Text: "(v + u) / t"},
				{Text: "(v − u) / t", IsCorrect: true},
				{Text: "(u − v) / t"},
				{Text: "vt − u"},
			},
			Published: true,
		},
		{
			ChapterID:    dynamics.ID,
			QuestionText: "নিউটনের গতির তৃতীয় সূত্রটি বিবৃত কর।",
			QuestionType: model.QuestionTypeVeryShort,
			Marks:        1,
			ReferenceAnswer: "প্রত্যেক ক্রিয়ারই একটি সমান ও বিপরীতমুখী প্রতিক্রিয়া আছে।",
			Published:       true,
		},
	}
	for _, q := range questions {
		if err := questionRepo.Create(ctx, q); err != nil {
			log.Fatal().Err(err).Msg("Failed to create question")
		}
	}
	fmt.Printf("Created %d questions\n", len(questions))

	// ─── Mock Test (published) ─────────────────────────────────────────
	ids := make([]uuid.UUID, 0, len(questions))
	totalMarks := 0
	for _, q := range questions {
		ids = append(ids, q.ID)
		totalMarks += q.Marks
	}

	test := &model.MockTest{
		SubjectID:         physics.ID,
		Title:             "পদার্থবিজ্ঞান মডেল টেস্ট ১",
		Description:       "ভেক্টর ও গতিবিদ্যা অধ্যায়ের উপর মডেল টেস্ট",
		DurationMinutes:   15,
		TotalMarks:        totalMarks,
		TotalQuestions:    len(ids),
		PassingPercentage: 40,
		QuestionIDs:       ids,
		Status:            model.TestStatusDraft,
	}
	if err := testRepo.Create(ctx, test); err != nil {
		log.Fatal().Err(err).Msg("Failed to create mock test")
	}
	if err := testRepo.UpdateStatus(ctx, test.ID, model.TestStatusPublished); err != nil {
		log.Fatal().Err(err).Msg("Failed to publish mock test")
	}
	fmt.Printf("Created published mock test %s (%d marks, %d minutes)\n",
		test.ID, test.TotalMarks, test.DurationMinutes)

	fmt.Println("Seeding complete")
}
