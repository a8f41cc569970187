// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Masterminds/sprig/v3"
)

const invitationTemplate = `
<h2>You've been invited to join {{ .ProjectName }}</h2>

<p>Hello,</p>

<p>
  <strong>{{ .InviterName }}</strong> has invited you to join the project
  <strong>{{ .ProjectName }}</strong> on Pulsewatch as
  <strong>{{ .RoleName }}</strong>.
</p>

<p><a href="{{ .AcceptURL }}">Accept invitation</a></p>

<p>
  This invitation was sent on {{ .CreatedAt | date "January 2, 2006" }} and
  expires after seven days. If you weren't expecting it you can safely ignore
  this email.
</p>
`

type invitationData struct {
	ProjectName string
	InviterName string
	RoleName    string
	AcceptURL   string
	CreatedAt   interface{}
}

var invitationTmpl = template.Must(
	template.New("invitation").Funcs(sprig.FuncMap()).Parse(invitationTemplate),
)

func renderInvitation(data invitationData) (string, error) {
	var buf bytes.Buffer
	if err := invitationTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render invitation email: %w", err)
	}
	return buf.String(), nil
}
