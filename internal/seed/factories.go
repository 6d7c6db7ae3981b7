package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nestling/internal/middleware"
	"nestling/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoPassword is the password of every generated user.
const DemoPassword = "Passw0rd!"

// DemoEmailDomain marks generated accounts so Clear can find them.
const DemoEmailDomain = "demo.nestling.local"

// Options sizes a demo run.
type Options struct {
	Users     int
	Articles  int
	Events    int
	Comments  int
	Calendars int
	// MaxDays bounds how far publication dates spread into the past and
	// event dates around now.
	MaxDays int
	// Seed makes a run reproducible. Zero picks a time based seed.
	Seed int64
}

// DefaultOptions is a small but browsable data set.
func DefaultOptions() Options {
	return Options{Users: 30, Articles: 60, Events: 20, Comments: 120, Calendars: 5, MaxDays: 90}
}

// Result counts what a demo run created.
type Result struct {
	Users         int
	Articles      int
	Events        int
	Likes         int
	Registrations int
	Comments      int
	Calendars     int
}

// Factory builds demo entities and persists them.
type Factory struct {
	db   *gorm.DB
	fake *gofakeit.Faker
	opts Options
	now  func() time.Time
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{db: db, fake: gofakeit.New(seed), opts: opts, now: time.Now}
}

// lookups are the reference rows demo content points at.
type lookups struct {
	userType  models.TypeUser
	adminType models.TypeUser
	types     []models.TypeArticle
	tags      []models.Tag
	cities    []models.City
	opened    models.StateEvent
	passed    models.StateEvent
}

var errReferenceMissing = errors.New("reference data missing: run the reference seed first")

func (f *Factory) loadLookups(ctx context.Context) (*lookups, error) {
	db := f.db.WithContext(ctx)
	var l lookups
	if err := db.Where("name = ?", string(models.RoleUser)).First(&l.userType).Error; err != nil {
		return nil, fmt.Errorf("%w: user type: %v", errReferenceMissing, err)
	}
	if err := db.Where("name = ?", string(models.RoleAdmin)).First(&l.adminType).Error; err != nil {
		return nil, fmt.Errorf("%w: admin type: %v", errReferenceMissing, err)
	}
	if err := db.Where("name = ?", models.StateOpened).First(&l.opened).Error; err != nil {
		return nil, fmt.Errorf("%w: opened state: %v", errReferenceMissing, err)
	}
	if err := db.Where("name = ?", models.StatePassed).First(&l.passed).Error; err != nil {
		return nil, fmt.Errorf("%w: passed state: %v", errReferenceMissing, err)
	}
	if err := db.Order("id").Find(&l.types).Error; err != nil {
		return nil, err
	}
	if err := db.Order("id").Find(&l.tags).Error; err != nil {
		return nil, err
	}
	if err := db.Order("id").Find(&l.cities).Error; err != nil {
		return nil, err
	}
	if len(l.types) == 0 || len(l.cities) == 0 {
		return nil, fmt.Errorf("%w: article types and cities are required", errReferenceMissing)
	}
	return &l, nil
}

// BuildUser returns an unsaved user of the given type. The password hash is
// left for the caller.
func (f *Factory) BuildUser(i int, typeID uint) *models.User {
	first, last := f.fake.FirstName(), f.fake.LastName()
	return &models.User{
		Email:     fmt.Sprintf("%s.%s.%d@%s", strings.ToLower(first), strings.ToLower(last), i, DemoEmailDomain),
		Name:      first,
		Surname:   last,
		MoodEmoji: f.fake.Emoji(),
		City:      f.fake.City(),
		TypeID:    typeID,
	}
}

// BuildArticle returns an unsaved article by author.
func (f *Factory) BuildArticle(authorID uint, l *lookups) *models.Article {
	return &models.Article{
		AuthorID:        authorID,
		TypeID:          l.types[f.fake.IntRange(0, len(l.types)-1)].ID,
		PublishedAt:     f.pastTime(),
		Name:            strings.TrimSuffix(f.fake.Sentence(f.fake.IntRange(3, 7)), "."),
		DescriptionLite: f.fake.Sentence(12),
		Description:     f.fake.Paragraph(3, 4, 12, "\n\n"),
		Tags:            f.pickTags(l.tags),
	}
}

// BuildEvent returns an unsaved event. Past events are marked passed.
func (f *Factory) BuildEvent(l *lookups) *models.Event {
	offset := time.Duration(f.fake.IntRange(-f.opts.MaxDays, f.opts.MaxDays)) * 24 * time.Hour
	start := f.now().UTC().Add(offset).Truncate(time.Hour)
	state := l.opened
	if start.Before(f.now()) {
		state = l.passed
	}
	return &models.Event{
		ConductedAt:     start,
		StoppedAt:       start.Add(time.Duration(f.fake.IntRange(1, 4)) * time.Hour),
		CityID:          l.cities[f.fake.IntRange(0, len(l.cities)-1)].ID,
		Address:         f.fake.Street(),
		Name:            strings.TrimSuffix(f.fake.Sentence(f.fake.IntRange(2, 5)), "."),
		DescriptionLite: f.fake.Sentence(10),
		Description:     f.fake.Paragraph(2, 3, 10, "\n\n"),
		StateID:         state.ID,
		Tags:            f.pickTags(l.tags),
	}
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.fake.IntRange(0, f.opts.MaxDays*24*60)) * time.Minute
	return f.now().UTC().Add(-back)
}

func (f *Factory) pickTags(all []models.Tag) []models.Tag {
	if len(all) == 0 {
		return nil
	}
	n := f.fake.IntRange(0, min(3, len(all)))
	picked := make([]models.Tag, 0, n)
	seen := map[uint]bool{}
	for len(picked) < n {
		tag := all[f.fake.IntRange(0, len(all)-1)]
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		picked = append(picked, tag)
	}
	return picked
}

// Demo fills the database with generated users, content and interactions.
// The first generated user is an editor (admin type) who authors the articles.
func (f *Factory) Demo(ctx context.Context) (*Result, error) {
	l, err := f.loadLookups(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	db := f.db.WithContext(ctx)

	var hash string
	users := make([]models.User, 0, f.opts.Users+1)
	for i := 0; i <= f.opts.Users; i++ {
		typeID := l.userType.ID
		if i == 0 {
			typeID = l.adminType.ID
		}
		u := f.BuildUser(i, typeID)
		if hash == "" {
			if err := u.SetPassword(DemoPassword); err != nil {
				return nil, err
			}
			hash = u.PasswordHash
		}
		u.PasswordHash = hash
		if err := db.Create(u).Error; err != nil {
			return nil, fmt.Errorf("create user %s: %w", u.Email, err)
		}
		users = append(users, *u)
	}
	res.Users = len(users)
	editor := users[0]
	members := users[1:]

	articles := make([]models.Article, 0, f.opts.Articles)
	for i := 0; i < f.opts.Articles; i++ {
		a := f.BuildArticle(editor.ID, l)
		if err := db.Create(a).Error; err != nil {
			return nil, fmt.Errorf("create article: %w", err)
		}
		articles = append(articles, *a)
	}
	res.Articles = len(articles)

	events := make([]models.Event, 0, f.opts.Events)
	for i := 0; i < f.opts.Events; i++ {
		e := f.BuildEvent(l)
		if err := db.Create(e).Error; err != nil {
			return nil, fmt.Errorf("create event: %w", err)
		}
		events = append(events, *e)
	}
	res.Events = len(events)

	if res.Likes, err = f.likes(db, members, articles); err != nil {
		return nil, err
	}
	if res.Registrations, err = f.registrations(db, members, events); err != nil {
		return nil, err
	}
	if res.Comments, err = f.comments(db, members, articles); err != nil {
		return nil, err
	}
	if res.Calendars, err = f.calendars(db, members); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "Demo data created",
		slog.Int("users", res.Users),
		slog.Int("articles", res.Articles),
		slog.Int("events", res.Events),
		slog.Int("likes", res.Likes),
		slog.Int("registrations", res.Registrations),
		slog.Int("comments", res.Comments),
		slog.Int("calendars", res.Calendars),
	)
	return res, nil
}

func (f *Factory) likes(db *gorm.DB, users []models.User, articles []models.Article) (int, error) {
	var rows []models.Like
	for _, u := range users {
		for _, a := range articles {
			if f.fake.Float32Range(0, 1) < 0.3 {
				rows = append(rows, models.Like{UserID: u.ID, ArticleID: a.ID})
			}
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 500).Error; err != nil {
		return 0, fmt.Errorf("create likes: %w", err)
	}
	return len(rows), nil
}

func (f *Factory) registrations(db *gorm.DB, users []models.User, events []models.Event) (int, error) {
	var rows []models.Registration
	for _, u := range users {
		for _, e := range events {
			if f.fake.Float32Range(0, 1) < 0.2 {
				rows = append(rows, models.Registration{UserID: u.ID, EventID: e.ID})
			}
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 500).Error; err != nil {
		return 0, fmt.Errorf("create registrations: %w", err)
	}
	return len(rows), nil
}

func (f *Factory) comments(db *gorm.DB, users []models.User, articles []models.Article) (int, error) {
	if len(users) == 0 || len(articles) == 0 {
		return 0, nil
	}
	for i := 0; i < f.opts.Comments; i++ {
		a := articles[f.fake.IntRange(0, len(articles)-1)]
		c := models.Comment{
			UserID:      users[f.fake.IntRange(0, len(users)-1)].ID,
			ArticleID:   a.ID,
			PublishedAt: a.PublishedAt.Add(time.Duration(f.fake.IntRange(1, 72*60)) * time.Minute),
			Content:     f.fake.Sentence(f.fake.IntRange(4, 20)),
		}
		if err := db.Create(&c).Error; err != nil {
			return i, fmt.Errorf("create comment: %w", err)
		}
	}
	return f.opts.Comments, nil
}

func (f *Factory) calendars(db *gorm.DB, users []models.User) (int, error) {
	n := min(f.opts.Calendars, len(users))
	for i := 0; i < n; i++ {
		start := f.now().UTC().AddDate(0, 0, -f.fake.IntRange(0, 200))
		cal := models.NewPregnancyCalendar(users[i].ID, "Our little one", start)
		for w := 0; w < f.fake.IntRange(1, 5); w++ {
			day := start.AddDate(0, 0, 7*f.fake.IntRange(1, 38))
			cal.PutEntry(models.CalendarEntry{
				Date:        day.Format(models.CalendarDateLayout),
				Name:        strings.TrimSuffix(f.fake.Sentence(3), "."),
				Description: f.fake.Sentence(10),
			})
		}
		if err := db.Create(cal).Error; err != nil {
			return i, fmt.Errorf("create calendar: %w", err)
		}
	}
	return n, nil
}

// Clear removes all content and every generated account. Reference data and
// real accounts are kept.
func Clear(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{
			&models.Comment{}, &models.Like{}, &models.Registration{}, &models.PregnancyCalendar{},
		} {
			if err := all.Delete(model).Error; err != nil {
				return err
			}
		}
		for _, table := range []string{"tag_articles", "tag_events"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		for _, model := range []any{&models.Article{}, &models.Event{}} {
			if err := all.Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Where("email LIKE ?", "%@"+DemoEmailDomain).Delete(&models.User{}).Error
	})
}
