package service

import (
	"sort"
	"time"

	"nestling/internal/models"
	"nestling/internal/storage"
)

// UserView is the public shape of a user.
type UserView struct {
	UUID       string          `json:"uuid"`
	Email      string          `json:"email"`
	Phone      *string         `json:"phone"`
	Name       string          `json:"name"`
	Surname    string          `json:"surname"`
	Patronymic string          `json:"patronymic"`
	MoodEmoji  string          `json:"mood_emoji"`
	City       string          `json:"city"`
	BirthDate  *string         `json:"birth_date"`
	Type       models.TypeUser `json:"type"`
	Icon       string          `json:"icon"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuthorView is the short user shape inlined into content.
type AuthorView struct {
	UUID       string `json:"uuid"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Patronymic string `json:"patronymic"`
	Icon       string `json:"icon"`
}

type ArticleView struct {
	UUID            string             `json:"uuid"`
	Author          AuthorView         `json:"author"`
	PublishedAt     time.Time          `json:"published_at"`
	Type            models.TypeArticle `json:"type"`
	Name            string             `json:"name"`
	DescriptionLite string             `json:"description_lite"`
	Description     string             `json:"description"`
	Tags            []models.Tag       `json:"tags"`
}

type EventView struct {
	UUID            string            `json:"uuid"`
	DateConducting  time.Time         `json:"date_conducting"`
	DateStop        time.Time         `json:"date_stop"`
	City            models.City       `json:"city"`
	Address         string            `json:"address"`
	Name            string            `json:"name"`
	DescriptionLite string            `json:"description_lite"`
	Description     string            `json:"description"`
	State           models.StateEvent `json:"state"`
	Tags            []models.Tag      `json:"tags"`
	Registrants     []AuthorView      `json:"registrants,omitempty"`
}

type CommentView struct {
	UUID        string     `json:"uuid"`
	Author      AuthorView `json:"author"`
	PublishedAt time.Time  `json:"published_at"`
	Content     string     `json:"content"`
}

// MembershipView answers "how many, and am I one of them" for likes and registrations.
type MembershipView struct {
	Count  int64 `json:"count"`
	Member bool  `json:"member"`
}

type CalendarEntryView struct {
	Date        string `json:"date"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

type CalendarView struct {
	UUID        string                       `json:"uuid"`
	Name        string                       `json:"name"`
	DateStart   string                       `json:"date_start"`
	DateDue     string                       `json:"date_due"`
	WindowStart string                       `json:"window_start"`
	WindowEnd   string                       `json:"window_end"`
	Calendar    map[string]CalendarEntryView `json:"calendar"`
	Dates       []string                     `json:"dates"`
}

// viewMapper turns rows into views, resolving blob keys to public URLs.
type viewMapper struct {
	store storage.Store
}

func (m viewMapper) url(key string) string {
	if key == "" || m.store == nil {
		return key
	}
	return m.store.PublicURL(key)
}

func formatDate(t time.Time) string {
	return t.Format(models.CalendarDateLayout)
}

func (m viewMapper) user(u *models.User) UserView {
	v := UserView{
		UUID:       u.UUID.String(),
		Email:      u.Email,
		Phone:      u.Phone,
		Name:       u.Name,
		Surname:    u.Surname,
		Patronymic: u.Patronymic,
		MoodEmoji:  u.MoodEmoji,
		City:       u.City,
		Type:       u.Type,
		Icon:       m.url(u.Icon),
		CreatedAt:  u.CreatedAt,
	}
	if u.BirthDate != nil {
		d := formatDate(time.Time(*u.BirthDate))
		v.BirthDate = &d
	}
	return v
}

func (m viewMapper) author(u *models.User) AuthorView {
	return AuthorView{
		UUID:       u.UUID.String(),
		Name:       u.Name,
		Surname:    u.Surname,
		Patronymic: u.Patronymic,
		Icon:       m.url(u.Icon),
	}
}

func (m viewMapper) authors(users []models.User) []AuthorView {
	out := make([]AuthorView, 0, len(users))
	for i := range users {
		out = append(out, m.author(&users[i]))
	}
	return out
}

func tagsOrEmpty(tags []models.Tag) []models.Tag {
	if tags == nil {
		return []models.Tag{}
	}
	return tags
}

func (m viewMapper) article(a *models.Article) ArticleView {
	return ArticleView{
		UUID:            a.UUID.String(),
		Author:          m.author(&a.Author),
		PublishedAt:     a.PublishedAt,
		Type:            a.Type,
		Name:            a.Name,
		DescriptionLite: a.DescriptionLite,
		Description:     a.Description,
		Tags:            tagsOrEmpty(a.Tags),
	}
}

func (m viewMapper) event(e *models.Event) EventView {
	return EventView{
		UUID:            e.UUID.String(),
		DateConducting:  e.ConductedAt,
		DateStop:        e.StoppedAt,
		City:            e.City,
		Address:         e.Address,
		Name:            e.Name,
		DescriptionLite: e.DescriptionLite,
		Description:     e.Description,
		State:           e.State,
		Tags:            tagsOrEmpty(e.Tags),
	}
}

func (m viewMapper) comment(c *models.Comment) CommentView {
	return CommentView{
		UUID:        c.UUID.String(),
		Author:      m.author(&c.User),
		PublishedAt: c.PublishedAt,
		Content:     c.Content,
	}
}

func (m viewMapper) calendar(c *models.PregnancyCalendar) CalendarView {
	entries := c.EntryMap()
	v := CalendarView{
		UUID:        c.UUID.String(),
		Name:        c.Name,
		DateStart:   formatDate(time.Time(c.StartDate)),
		DateDue:     formatDate(time.Time(c.DueDate)),
		WindowStart: formatDate(time.Time(c.WindowStart)),
		WindowEnd:   formatDate(time.Time(c.WindowEnd)),
		Calendar:    make(map[string]CalendarEntryView, len(entries)),
		Dates:       make([]string, 0, len(entries)),
	}
	for key, e := range entries {
		v.Calendar[key] = CalendarEntryView{
			Date:        e.Date,
			Name:        e.Name,
			Description: e.Description,
			Image:       m.url(e.Image),
		}
		v.Dates = append(v.Dates, key)
	}
	sort.Strings(v.Dates)
	return v
}
