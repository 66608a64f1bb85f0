package conversation

import (
	"errors"
	"html"
	"strconv"
	"strings"

	"github.com/m3rciful/boxingcrm/crm/domain"
	"github.com/m3rciful/boxingcrm/crm/identity"
	"github.com/m3rciful/boxingcrm/crm/locale"
)

func (t *turn) onStart() error {
	if t.id.Role == identity.Child {
		return t.resumeChild()
	}

	ref := domain.Truncate(strings.TrimSpace(t.ev.Payload), MaxRefLength)
	if ref != "" {
		child, err := t.findChild(ref)
		switch {
		case err == nil:
			return t.link(child)
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
	}

	if t.id.Role == identity.Unregistered {
		return t.askLanguage(ref)
	}
	if strings.TrimSpace(t.id.Parent.FullName) == "" {
		return t.enter(StepParentName)
	}
	if err := t.clear(); err != nil {
		return err
	}
	return t.mainMenu()
}

func (t *turn) onMenu() error {
	switch t.id.Role {
	case identity.Child:
		if err := t.clear(); err != nil {
			return err
		}
		t.reply(locale.Blank, kidMenuKB(t.lang))
		return nil
	case identity.Parent:
		if err := t.clear(); err != nil {
			return err
		}
		return t.mainMenu()
	}
	return t.askLanguage("")
}

func (t *turn) onWhoAmI() error {
	t.reply(t.trf(locale.WhoAmI, t.ev.UserID, html.EscapeString(t.ev.FirstName)), nil)
	return nil
}

// findChild resolves an invitation reference: a numeric child id or a token.
func (t *turn) findChild(ref string) (*domain.Child, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil && id > 0 {
		return t.tx.ChildByID(t.ctx, id)
	}
	return t.tx.ChildByToken(t.ctx, ref)
}

// link binds the caller to child. The parent's own identity and identities
// other than the one already bound are turned away without changes.
func (t *turn) link(child *domain.Child) error {
	parent, err := t.tx.ParentByID(t.ctx, child.ParentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if parent != nil {
		t.lang = locale.Normalize(parent.Language, t.e.resolver.DefaultLang())
	}

	if parent != nil && parent.TgID == t.ev.UserID {
		t.reply(t.tr(locale.LinkIsForChild), nil)
		return nil
	}
	if child.Linked() && child.TgID != t.ev.UserID {
		t.reply(t.tr(locale.LinkTaken), nil)
		return nil
	}

	if !child.Linked() {
		if err := t.tx.BindChild(t.ctx, child.ID, t.ev.UserID); err != nil {
			if errors.Is(err, domain.ErrAlreadyLinked) {
				t.reply(t.tr(locale.LinkTaken), nil)
				return nil
			}
			return err
		}
		if parent != nil {
			if chatID, err := strconv.ParseInt(parent.TgID, 10, 64); err == nil {
				t.notify(chatID, t.trf(locale.ChildLinkedParent, html.EscapeString(child.Name)))
			}
		}
	}

	t.reply(t.trf(locale.ChildLinkedChild, html.EscapeString(child.Name)), kidPhoneKB(t.lang))
	return t.enter(StepKidPhone, fieldChildID, strconv.FormatInt(child.ID, 10))
}

// resumeChild restores a linked child: back to the phone prompt while the
// phone is missing, otherwise to the child menu.
func (t *turn) resumeChild() error {
	kid := t.id.Child
	if strings.TrimSpace(kid.Phone) == "" {
		t.reply(t.trf(locale.ChildLinkedChild, html.EscapeString(kid.Name)), kidPhoneKB(t.lang))
		return t.enter(StepKidPhone, fieldChildID, strconv.FormatInt(kid.ID, 10))
	}
	if err := t.clear(); err != nil {
		return err
	}
	t.reply(locale.Blank, kidMenuKB(t.lang))
	return nil
}

func (t *turn) askLanguage(ref string) error {
	if ref == "" {
		ref = t.sess.Field(fieldRefCode)
	}
	if ref == "" {
		return t.enter(StepChooseLanguage)
	}
	return t.enter(StepChooseLanguage, fieldRefCode, ref)
}

// chooseLanguage creates the parent record, or updates its language, and
// starts the registration.
func (t *turn) chooseLanguage(lang string) error {
	ref := t.sess.Field(fieldRefCode)
	p := t.id.Parent
	if p == nil || t.id.Role != identity.Parent {
		p = &domain.Parent{TgID: t.ev.UserID, Language: lang, RefCode: ref}
		if err := t.tx.CreateParent(t.ctx, p); err != nil {
			return err
		}
	} else {
		p.Language = lang
		if p.RefCode == "" {
			p.RefCode = ref
		}
		if err := t.tx.UpdateParent(t.ctx, p); err != nil {
			return err
		}
	}
	t.id.Parent = p
	t.lang = lang
	return t.enter(StepParentName)
}
