package service

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/purrfectmatch/api/internal/domain"
)

type verificationEmailData struct {
	BackendLink  string
	FrontendLink string
	OTP          string
	ValidUntil   string
}

var verificationTemplates = map[string]*template.Template{
	"en": template.Must(template.New("en").Parse(`
<h1>Email verification</h1>
<p>This email was generated automatically to verify your email address. You don't need to reply.</p>
<p>To verify your email address you have three options:</p>
<ol>
  <li><a target="_blank" href="{{.BackendLink}}">Click here and proceed to the backend. Then your email will be verified and you will be redirected to the Purrfect-match website.</a></li>
  <li><a target="_blank" href="{{.FrontendLink}}">Click here and proceed to the Purrfect-match website. Then a request to verify your email will be sent.</a></li>
  <li>You can copy this one time password <b>{{.OTP}}</b> into a corresponding field on the website</li>
</ol>
<p>Make a note, this email is valid until {{.ValidUntil}}</p>`)),
	"uk": template.Must(template.New("uk").Parse(`
<h1>Верифікація пошти</h1>
<p>Цей лист було згенеровано автоматично, щоб верифікувати вашу поштову скриньку. Вам не потрібно відповідати.</p>
<p>У вас є три способи верифікувати вашу пошту:</p>
<ol>
  <li><a target="_blank" href="{{.BackendLink}}">Натисніть сюди та перейдіть до бекенду. Потім ваша пошта буде верифікована та вас перенаправить на сайт Purrfect-match.</a></li>
  <li><a target="_blank" href="{{.FrontendLink}}">Натисніть сюди та перейдіть на сайт Purrfect-match. Потім буде відправлено запит для підтвердження вашої пошти.</a></li>
  <li>Ви можете скопіювати цей одноразовий пароль <b>{{.OTP}}</b> у відповідне поле на сайті</li>
</ol>
<p>Майте на увазі, цей лист дійсний до {{.ValidUntil}}</p>`)),
}

// verificationEmail renders the localized verification message. Unknown
// languages fall back to English.
func verificationEmail(to, lang, baseURL, frontendURL, token, otp string, validUntil time.Time) (domain.Email, error) {
	tmpl, ok := verificationTemplates[lang]
	if !ok {
		tmpl = verificationTemplates["en"]
	}

	query := fmt.Sprintf("verificationToken=%s&otp=%s", token, otp)
	data := verificationEmailData{
		BackendLink:  baseURL + "/api/users/verify?" + query,
		FrontendLink: frontendURL + "/verify?" + query,
		OTP:          otp,
		ValidUntil:   validUntil.Format("Jan 2, 2006 at 15:04 MST"),
	}

	var body strings.Builder
	if err := tmpl.Execute(&body, data); err != nil {
		return domain.Email{}, err
	}

	return domain.Email{
		To:      to,
		Subject: "Verify email",
		HTML:    body.String(),
	}, nil
}
