package tui

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	stdsync "sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/opchat/opchat/internal/backend"
	"github.com/opchat/opchat/internal/bus"
	"github.com/opchat/opchat/internal/config"
	"github.com/opchat/opchat/internal/domain"
	"github.com/opchat/opchat/internal/genai"
	"github.com/opchat/opchat/internal/media"
	"github.com/opchat/opchat/internal/outbox"
	"github.com/opchat/opchat/internal/profile"
	"github.com/opchat/opchat/internal/status"
	"github.com/opchat/opchat/internal/store"
	intsync "github.com/opchat/opchat/internal/sync"
	"github.com/opchat/opchat/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// Deps carries everything the shell needs, assembled by the app module.
type Deps struct {
	Profile  string
	Config   *config.Config
	DB       *store.DB
	Bus      *bus.Bus
	Backend  *backend.Client
	GenAI    *genai.Client
	Chats    *intsync.ChatSynchronizer
	Messages *intsync.MessageSynchronizer
	Sender   *outbox.Sender
	Limiter  *media.Limiter
	Machine  *status.Machine
	Logger   *zap.Logger
}

// App is the operator console shell.
type App struct {
	Deps

	app       *tview.Application
	pages     *tview.Pages
	registry  *Registry
	flash     *Flash
	statusBar *views.StatusBar
	chatList  *views.ChatList
	thread    *views.Thread
	composer  *views.Composer
	login     *views.Login
	picker    *views.Picker

	currentUser *domain.User

	mediaMu     stdsync.Mutex
	loadedMedia map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the console application.
func NewApp(deps Deps) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		Deps:        deps,
		app:         tview.NewApplication(),
		pages:       tview.NewPages(),
		registry:    NewRegistry(),
		flash:       &Flash{},
		statusBar:   views.NewStatusBar(),
		chatList:    views.NewChatList(),
		thread:      views.NewThread(),
		composer:    views.NewComposer(),
		login:       views.NewLogin(),
		picker:      views.NewPicker("Select"),
		loadedMedia: make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
	}

	a.statusBar.SetProfile(deps.Profile)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddView("chats", "quit", &Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: func() { a.app.Stop() },
	})
	a.registry.AddView("chats", "refresh", &Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:refresh", Visible: true,
		Handler: func() { a.refreshChats() },
	})
	a.registry.AddView("chat", "templates", &Action{
		Rune: 't', Key: tcell.KeyRune,
		Description: "t:templates", Visible: true,
		Handler: func() { a.showTemplates() },
	})
	a.registry.AddView("chat", "suggest", &Action{
		Rune: 's', Key: tcell.KeyRune,
		Description: "s:suggest", Visible: true,
		Handler: func() { a.suggestReplies() },
	})
	a.registry.AddView("chat", "rewrite", &Action{
		Rune: 'w', Key: tcell.KeyRune,
		Description: "w:rewrite", Visible: true,
		Handler: func() { a.rewriteDraft() },
	})
	a.registry.AddView("chat", "media", &Action{
		Rune: 'm', Key: tcell.KeyRune,
		Description: "m:load media", Visible: true,
		Handler: func() { a.loadLatestMedia() },
	})
}

func (a *App) setupCallbacks() {
	a.chatList.SetSelectedFunc(func(row, col int) {
		if id := a.chatList.SelectedChat(); id != "" {
			a.openChat(id)
		}
	})

	a.composer.SetOnSend(func(text string) {
		chat := a.Chats.Selected()
		if chat == nil {
			return
		}
		if !domain.CanWrite(chat, a.currentUser) {
			a.setFlash("Chat is assigned to another operator")
			return
		}
		if _, err := a.Sender.Queue(chat, text, a.currentUser); err != nil {
			if errors.Is(err, outbox.ErrInsufficientData) {
				a.setFlash("Chat is missing send routing data")
			} else {
				a.setFlash("Send failed: " + err.Error())
			}
		}
	})

	a.login.SetOnSubmit(func(email, password string) {
		go a.doLogin(email, password)
	})

	a.picker.SetOnCancel(func() {
		a.pages.HidePage("picker")
		a.app.SetFocus(a.composer.InputField)
	})
}

func (a *App) setupLayout() {
	chatFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.thread, 0, 1, false).
		AddItem(a.composer, 1, 0, false)

	loginFlex := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(a.login, 11, 0, true).
			AddItem(nil, 0, 1, false), 50, 0, true).
		AddItem(nil, 0, 1, false)

	a.pages.AddPage("login", loginFlex, true, false)
	a.pages.AddPage("chats", a.chatList, true, true)
	a.pages.AddPage("chat", chatFlex, true, false)
	a.pages.AddPage("picker", modal(a.picker, 50, 12), true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape {
			switch currentPage {
			case "picker":
				a.pages.HidePage("picker")
				a.app.SetFocus(a.composer.InputField)
				return nil
			case "chat":
				a.Messages.Stop()
				a.pages.SwitchToPage("chats")
				a.app.SetFocus(a.chatList)
				return nil
			}
		}

		// Let text input widgets handle all keys normally.
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			return event
		}

		// 'i' focuses the composer (only when not already in an input field).
		if currentPage == "chat" && event.Key() == tcell.KeyRune && event.Rune() == 'i' {
			if !a.composer.ReadOnly() {
				a.app.SetFocus(a.composer.InputField)
			}
			return nil
		}

		if a.registry.HandleEvent(currentPage, event) {
			return nil
		}

		return event
	})
}

func modal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}

// Run starts the console. It restores a stored session when one exists,
// otherwise drops to the login form.
func (a *App) Run() error {
	go a.consumeEvents()

	// A per-profile setting overrides the global config value.
	if v, err := a.DB.GetKV(store.KeyAutoLoadMedia); err == nil && v != "" {
		a.Config.AutoLoadMedia = v == "true"
	}

	token, err := a.DB.GetKV(store.KeySessionToken)
	if err != nil {
		a.Logger.Error("failed to read stored session", zap.Error(err))
	}
	if token == "" {
		_ = a.Machine.Transition(status.AuthRequired)
		a.showLogin()
	} else {
		a.Backend.SetToken(token)
		a.restoreUser()
		_ = a.Machine.Transition(status.Online)
		a.startSession()
	}

	go a.clockLoop()
	go a.dashboardLoop()

	return a.app.Run()
}

// Stop gracefully shuts down the console.
func (a *App) Stop() {
	a.cancel()
	a.Chats.Stop()
	a.Messages.Stop()
	a.app.Stop()
}

func (a *App) doLogin(email, password string) {
	ctx, cancel := context.WithTimeout(a.ctx, 15*time.Second)
	defer cancel()

	token, err := a.Backend.Login(ctx, email, password)
	if err != nil {
		a.Logger.Warn("login failed", zap.Error(err))
		a.queueDraw(func() {
			a.login.Reset()
			a.setFlash("Login failed: " + err.Error())
		})
		return
	}

	a.Backend.SetToken(token)
	if err := a.DB.SetKV(store.KeySessionToken, token); err != nil {
		a.Logger.Error("failed to store session token", zap.Error(err))
	}

	me, err := a.Backend.Me(ctx)
	if err != nil {
		a.Logger.Warn("failed to load current user", zap.Error(err))
	} else if raw, err := json.Marshal(me); err == nil {
		_ = a.DB.SetKV(store.KeyCurrentUser, string(raw))
	}

	_ = a.Machine.Transition(status.Online)
	a.queueDraw(func() {
		if me != nil {
			a.currentUser = me
		}
		a.startSession()
	})
}

// restoreUser loads the operator snapshot saved at login time.
func (a *App) restoreUser() {
	raw, err := a.DB.GetKV(store.KeyCurrentUser)
	if err != nil || raw == "" {
		return
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		a.Logger.Warn("corrupt stored user snapshot", zap.Error(err))
		return
	}
	a.currentUser = &u
}

func (a *App) startSession() {
	a.Chats.Start(a.ctx)
	a.Sender.Start(a.ctx)
	a.pages.SwitchToPage("chats")
	a.app.SetFocus(a.chatList)
}

func (a *App) showLogin() {
	a.pages.SwitchToPage("login")
	a.app.SetFocus(a.login)
}

func (a *App) openChat(id string) {
	chat := a.Chats.Select(id)
	if chat == nil {
		return
	}

	name := chat.Name
	if name == "" {
		name = chat.RemoteID
	}
	a.thread.SetChatName(name)
	a.thread.ShowLoading()
	a.composer.SetReadOnly(!domain.CanWrite(chat, a.currentUser))

	a.Messages.Select(a.ctx, id)

	a.pages.SwitchToPage("chat")
	if a.composer.ReadOnly() {
		a.app.SetFocus(a.thread)
	} else {
		a.app.SetFocus(a.composer.InputField)
	}
}

func (a *App) refreshChats() {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, 15*time.Second)
		defer cancel()
		if err := a.Chats.Refresh(ctx); err != nil {
			a.Logger.Warn("manual refresh failed", zap.Error(err))
		}
	}()
}

// consumeEvents applies bus events to the screen.
func (a *App) consumeEvents() {
	ch, unsub := a.Bus.Subscribe("", 64)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			a.handleEvent(evt)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindChatListUpdated:
		a.queueDraw(func() {
			a.chatList.Update(a.Chats.Chats())
		})
	case bus.KindMessageListUpdated:
		chatID, _ := evt.Payload.(string)
		if chatID != a.Messages.ChatID() {
			return
		}
		msgs := a.Messages.Messages()
		loading := a.Messages.Loading()
		a.queueDraw(func() {
			if page, _ := a.pages.GetFrontPage(); page != "chat" && page != "picker" {
				return
			}
			if loading {
				a.thread.ShowLoading()
				return
			}
			a.thread.Update(msgs)
		})
		if a.Config.AutoLoadMedia && !loading {
			go a.autoLoadMedia(msgs)
		}
	case bus.KindMessageSendFailed:
		a.queueDraw(func() {
			a.setFlash("Message failed to send")
		})
	case bus.KindSessionExpired:
		a.Machine.Expire()
		a.Chats.Stop()
		a.Messages.Stop()
		a.Sender.Stop()
		a.queueDraw(func() {
			a.currentUser = nil
			a.setFlash("Session expired, sign in again")
			a.showLogin()
		})
	case bus.KindStatusChanged:
		change, ok := evt.Payload.(status.StatusChange)
		if !ok {
			return
		}
		a.queueDraw(func() {
			a.statusBar.SetStatus(string(change.To))
		})
	case bus.KindAlert:
		msg, _ := evt.Payload.(string)
		if msg != "" {
			a.queueDraw(func() {
				a.setFlash(msg)
			})
		}
	}
}

func (a *App) showTemplates() {
	templates, err := a.DB.ListTemplates()
	if err != nil {
		a.setFlash("Failed to load templates")
		return
	}
	if len(templates) == 0 {
		a.setFlash("No templates saved")
		return
	}
	labels := make([]string, len(templates))
	values := make([]string, len(templates))
	for i, t := range templates {
		labels[i] = t.Title
		values[i] = t.Body
	}
	a.showPicker("Templates", labels, values)
}

func (a *App) suggestReplies() {
	msgs := a.Messages.Messages()
	if len(msgs) == 0 {
		return
	}
	history := make([]string, 0, 10)
	start := len(msgs) - 10
	if start < 0 {
		start = 0
	}
	for _, m := range msgs[start:] {
		prefix := "customer: "
		if m.FromMe {
			prefix = "operator: "
		}
		history = append(history, prefix+domain.Preview(m))
	}
	aiContext, _ := a.DB.GetKV(store.KeyAIContext)

	a.setFlash("Asking for suggestions...")
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, 30*time.Second)
		defer cancel()
		suggestions, err := a.GenAI.SuggestReplies(ctx, history, aiContext)
		if err != nil {
			a.queueDraw(func() { a.setFlash(aiErrorMessage(err)) })
			return
		}
		a.queueDraw(func() {
			a.showPicker("Suggestions", suggestions, suggestions)
		})
	}()
}

func (a *App) rewriteDraft() {
	draft := a.composer.GetText()
	if strings.TrimSpace(draft) == "" {
		a.setFlash("Nothing to rewrite")
		return
	}

	a.setFlash("Rewriting...")
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, 30*time.Second)
		defer cancel()
		rewritten, err := a.GenAI.Rewrite(ctx, draft, "friendly", "professional", "similar")
		if err != nil {
			a.queueDraw(func() { a.setFlash(aiErrorMessage(err)) })
			return
		}
		a.queueDraw(func() {
			a.composer.SetText(rewritten)
			a.setFlash("")
		})
	}()
}

func aiErrorMessage(err error) string {
	switch {
	case errors.Is(err, genai.ErrRateLimited):
		return "AI rate limited, try again shortly"
	case errors.Is(err, genai.ErrMalformedReply):
		return "AI returned an unusable reply"
	default:
		return "AI request failed: " + err.Error()
	}
}

func (a *App) showPicker(title string, labels, values []string) {
	a.picker.SetTitle(" " + title + " ")
	a.picker.Update(labels, values)
	a.picker.SetOnPick(func(text string) {
		a.pages.HidePage("picker")
		a.composer.SetText(text)
		a.app.SetFocus(a.composer.InputField)
	})
	a.pages.ShowPage("picker")
	a.app.SetFocus(a.picker)
}

// loadLatestMedia fetches the newest attachment in the open chat.
func (a *App) loadLatestMedia() {
	msgs := a.Messages.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Media != nil && msgs[i].Media.Path != "" {
			go a.loadMedia(msgs[i])
			return
		}
	}
	a.setFlash("No media in this chat")
}

// autoLoadMedia fetches every not-yet-loaded attachment in the list.
func (a *App) autoLoadMedia(msgs []*domain.Message) {
	for _, m := range msgs {
		if m.Media == nil || m.Media.Path == "" {
			continue
		}
		key := media.Key(m.ID, m.Media.Path)
		a.mediaMu.Lock()
		loaded := a.loadedMedia[key]
		a.mediaMu.Unlock()
		if loaded {
			continue
		}
		a.loadMedia(m)
	}
}

func (a *App) loadMedia(m *domain.Message) {
	key := media.Key(m.ID, m.Media.Path)
	if !a.Limiter.Allowed(key) {
		a.queueDraw(func() {
			a.setFlash("Media blocked after repeated failures, retry later")
		})
		return
	}

	ctx, cancel := context.WithTimeout(a.ctx, 30*time.Second)
	defer cancel()
	data, err := a.Backend.FetchMedia(ctx, m.Media.Path)
	if err != nil {
		a.Limiter.RecordFailure(key)
		a.Logger.Warn("media load failed", zap.Error(err), zap.String("msg_id", m.ID))
		a.queueDraw(func() {
			a.setFlash("Media load failed")
		})
		return
	}
	a.Limiter.RecordSuccess(key)
	a.mediaMu.Lock()
	a.loadedMedia[key] = true
	a.mediaMu.Unlock()

	dest := a.mediaPath(m)
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		a.Logger.Error("failed to save media", zap.Error(err), zap.String("path", dest))
		return
	}
	a.queueDraw(func() {
		a.setFlash("Media saved: " + dest)
	})
}

func (a *App) mediaPath(m *domain.Message) string {
	dir := filepath.Join(profile.Dir(a.Profile), "media")
	_ = os.MkdirAll(dir, 0o700)
	name := m.Media.Filename
	if name == "" {
		name = m.ID
	}
	return filepath.Join(dir, name)
}

func (a *App) setFlash(msg string) {
	if msg == "" {
		a.statusBar.SetFlash("")
		return
	}
	a.flash.Set(msg, 5*time.Second)
	a.statusBar.SetFlash(msg)
}

// dashboardLoop refreshes the chat overview at its own faster cadence
// while the chat list is the front page.
func (a *App) dashboardLoop() {
	ticker := time.NewTicker(time.Duration(a.Config.DashboardPollSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.queueDraw(func() {
				if page, _ := a.pages.GetFrontPage(); page == "chats" {
					a.refreshChats()
				}
			})
		case <-a.ctx.Done():
			return
		}
	}
}

// clockLoop keeps the status bar clock and flash expiry current.
func (a *App) clockLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.queueDraw(func() {
				a.statusBar.SetFlash(a.flash.Get())
			})
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) queueDraw(fn func()) {
	a.app.QueueUpdateDraw(fn)
}
