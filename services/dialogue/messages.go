package dialogue

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"meetbot/models"
)

const (
	dateLayout    = "2006-01-02"
	displayLayout = "02/01/2006"
	slotLayout    = "02/01"
)

const (
	msgWelcome          = "สวัสดีครับ 👋 ยินดีต้อนรับสู่ระบบนัดประชุมอัตโนมัติ\nคุณต้องการทำอะไรครับ?"
	msgEnterEmail       = "กรุณากรอกอีเมลที่ต้องการเพิ่มเข้าระบบ:"
	msgReenterEmail     = "กรุณากรอกอีเมลใหม่อีกครั้ง:"
	msgInvalidEmail     = "รูปแบบอีเมลไม่ถูกต้อง กรุณากรอกอีเมลใหม่"
	msgEmailCancelled   = "❌ ยกเลิกการเพิ่มอีเมลเรียบร้อยแล้ว"
	msgEnterName        = "กรุณากรอกชื่อการประชุม:"
	msgEmptyName        = "ชื่อการประชุมต้องไม่ว่าง กรุณากรอกชื่อการประชุม:"
	msgRestartMeeting   = "เริ่มสร้างนัดประชุมใหม่\nกรุณากรอกชื่อการประชุม:"
	msgMissingDate      = "ไม่พบวันที่ที่เลือก กรุณาเลือกวันที่อีกครั้ง"
	msgBadDateRange     = "วันที่สิ้นสุดต้องไม่อยู่ก่อนวันที่เริ่มต้น กรุณาเลือกวันที่ใหม่อีกครั้ง"
	msgTimeHint         = "กรุณากรอกข้อมูลในรูปแบบ '13:00 - 14:00'"
	msgNeedParticipant  = "กรุณาเลือกผู้เข้าร่วมอย่างน้อย 1 คน"
	msgNoDirectory      = "ยังไม่มีอีเมลผู้ใช้ในระบบ พิมพ์ 'เพิ่มอีเมล' เพื่อเพิ่มผู้เข้าร่วม"
	msgChecking         = "กำลังตรวจสอบเวลาว่างของผู้เข้าร่วมประชุม..."
	msgNoSlots          = "❌ ไม่สามารถนัดประชุมได้ในวันและเวลานี้\nกรุณาเลือกวันและเวลาใหม่อีกครั้ง"
	msgBadSlot          = "ขออภัย เกิดข้อผิดพลาด กรุณาลองใหม่อีกครั้ง"
	msgMeetingCreated   = "✅ การนัดหมายถูกสร้างเรียบร้อยแล้ว! ขอบคุณที่ใช้ระบบนัดประชุมอัตโนมัติของเรา 🙏"
	msgMeetingCancelled = "❌ ยกเลิกการนัดหมายเรียบร้อยแล้ว"
	msgCancelled        = "ยกเลิกการทำรายการเรียบร้อยแล้ว"
	msgSessionReset     = "ขออภัย ข้อมูลการนัดหมายไม่ครบถ้วน กรุณาเริ่มต้นใหม่อีกครั้ง"
	msgNoMeetings       = "คุณยังไม่มีนัดประชุมที่กำลังจะมาถึง"
	msgHelp             = "พิมพ์ 'นัดประชุม' เพื่อเริ่มสร้างนัดประชุมใหม่\nคุณสามารถเลือกวันที่ เวลา และผู้เข้าร่วมได้\nพิมพ์ 'เพิ่มอีเมล' เพื่อเพิ่มผู้เข้าร่วม หรือ 'ยกเลิก' เพื่อยกเลิกรายการที่ทำอยู่"
)

func mainMenuMessage() models.OutgoingMessage {
	return models.OutgoingMessage{
		Kind: models.MessageMenu,
		Text: msgWelcome,
		Options: []models.Option{
			{Label: "🗓️ สร้างนัดประชุม", Type: models.OptionMessage, Action: CommandCreateMeeting},
			{Label: "📋 ดูนัดประชุมที่มี", Type: models.OptionMessage, Action: CommandViewMeetings},
			{Label: "📧 เพิ่มอีเมลผู้ใช้", Type: models.OptionMessage, Action: CommandAddEmail},
			{Label: "❓ วิธีใช้งาน", Type: models.OptionMessage, Action: CommandHelp},
		},
	}
}

func confirmEmailMessage(email string) models.OutgoingMessage {
	return models.OutgoingMessage{
		Kind:  models.MessageOptions,
		Title: "ยืนยันการเพิ่มอีเมล",
		Text:  fmt.Sprintf("อีเมล: %s\nคุณต้องการเพิ่มอีเมลนี้เข้าระบบใช่หรือไม่?", email),
		Options: []models.Option{
			{Label: "✅ ยืนยัน", Type: models.OptionPostback, Action: PostbackConfirmEmail},
			{Label: "🔄 แก้ไขอีเมล", Type: models.OptionPostback, Action: PostbackEditEmail},
			{Label: "❌ ยกเลิก", Type: models.OptionPostback, Action: PostbackCancelEmail},
		},
	}
}

func emailAddedMessage(email, link string) models.OutgoingMessage {
	if link == "" {
		return models.TextMessage(fmt.Sprintf("อีเมล %s ถูกเพิ่มแล้ว", email))
	}
	return models.OutgoingMessage{
		Kind:  models.MessageOptions,
		Title: fmt.Sprintf("อีเมล %s ถูกเพิ่มแล้ว", email),
		Text:  "กรุณากดปุ่มด้านล่างเพื่อยืนยันการเข้าถึงอีเมลของคุณ",
		Options: []models.Option{
			{Label: "🔗 ยืนยันอีเมล", Type: models.OptionURI, URI: link},
		},
	}
}

func datePickerMessage() models.OutgoingMessage {
	return models.OutgoingMessage{
		Kind:  models.MessageOptions,
		Title: "เลือกวันที่ประชุม",
		Text:  "กรุณาเลือกวันที่เริ่มต้น แล้วเลือกวันที่สิ้นสุด (เลือกวันเดียวกับเริ่มต้นได้)",
		Options: []models.Option{
			{Label: "เลือกวันที่เริ่มต้น", Type: models.OptionDatePicker, Action: PostbackStartDate},
			{Label: "เลือกวันที่สิ้นสุด", Type: models.OptionDatePicker, Action: PostbackEndDate},
		},
	}
}

func dateRangeMessage(start, end string) models.OutgoingMessage {
	const prompt = "\n\nกรุณาระบุช่วงเวลาที่ต้องการจัดประชุม\n(เช่น 13:00 - 14:00)"
	if start == end {
		return models.TextMessage("วันที่ประชุม: " + displayDate(start) + prompt)
	}
	return models.TextMessage("ช่วงวันที่ประชุม: " + displayDate(start) + " ถึง " + displayDate(end) + prompt)
}

func participantsMessage(emails []string) models.OutgoingMessage {
	opts := make([]models.Option, 0, len(emails)+1)
	for _, e := range emails {
		opts = append(opts, models.Option{
			Label:  "เลือก",
			Type:   models.OptionPostback,
			Action: PostbackData(PostbackSelectParticipant, e),
			Text:   e,
		})
	}
	opts = append(opts, models.Option{
		Label:  "ยืนยันผู้เข้าร่วม",
		Type:   models.OptionPostback,
		Action: PostbackConfirmParticipants,
	})
	return models.OutgoingMessage{
		Kind:    models.MessageOptions,
		Title:   "เลือกผู้เข้าร่วมประชุม",
		Text:    "กดเลือกผู้เข้าร่วม แล้วกดยืนยันผู้เข้าร่วม",
		Options: opts,
	}
}

func noSlotsMessage() models.OutgoingMessage {
	return models.OutgoingMessage{
		Kind: models.MessageMenu,
		Text: msgNoSlots,
		Options: []models.Option{
			{Label: "เลือกวันเวลาใหม่", Type: models.OptionMessage, Action: CommandCreateMeeting},
		},
	}
}

func slotsMessage(slots []models.FeasibleSlot) models.OutgoingMessage {
	lines := make([]string, 0, len(slots))
	opts := make([]models.Option, 0, len(slots))
	for i, s := range slots {
		lines = append(lines, fmt.Sprintf("%d. %s เวลา %s - %s", i+1, slotDate(s.Date), s.Start, s.End))
		opts = append(opts, models.Option{
			Label:  fmt.Sprintf("เลือกอันที่ %d", i+1),
			Type:   models.OptionPostback,
			Action: PostbackData(PostbackSelectSlot, strconv.Itoa(i)),
		})
	}
	return models.OutgoingMessage{
		Kind:    models.MessageOptions,
		Title:   "✅ พบช่วงเวลาว่างที่ตรงกัน:",
		Text:    strings.Join(lines, "\n"),
		Options: opts,
	}
}

func summaryMessage(d *models.MeetingDraft) models.OutgoingMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "📌 ชื่อ: %s\n", d.Name)
	fmt.Fprintf(&b, "📆 วันที่: %s\n", displayDate(d.ChosenDate))
	fmt.Fprintf(&b, "⏰ เวลา: %s - %s\n", d.ChosenStart, d.ChosenEnd)
	b.WriteString("👥 ผู้เข้าร่วม:")
	for _, p := range d.SelectedParticipants {
		b.WriteString("\n- " + p)
	}
	return models.OutgoingMessage{
		Kind:  models.MessageOptions,
		Title: "📝 สรุปข้อมูลการนัดหมาย",
		Text:  b.String(),
		Options: []models.Option{
			{Label: "✅ ยืนยัน", Type: models.OptionPostback, Action: PostbackConfirmMeeting},
			{Label: "🔄 แก้ไข", Type: models.OptionPostback, Action: PostbackEditMeeting},
			{Label: "❌ ยกเลิก", Type: models.OptionPostback, Action: PostbackCancelMeeting},
		},
	}
}

func meetingListMessage(meetings []models.FinalizedMeeting, loc *time.Location) models.OutgoingMessage {
	var b strings.Builder
	b.WriteString("📋 นัดประชุมของคุณ:")
	for i, m := range meetings {
		fmt.Fprintf(&b, "\n%d. %s %s", i+1, m.Title, meetingWhen(m, loc))
	}
	return models.TextMessage(b.String())
}

func meetingWhen(m models.FinalizedMeeting, loc *time.Location) string {
	start, err := time.Parse(time.RFC3339, m.Start)
	if err != nil {
		return m.Start
	}
	end, err := time.Parse(time.RFC3339, m.End)
	if err != nil {
		return m.Start
	}
	start, end = start.In(loc), end.In(loc)
	return fmt.Sprintf("%s %s - %s", start.Format(displayLayout), start.Format("15:04"), end.Format("15:04"))
}

func displayDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(displayLayout)
}

func slotDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(slotLayout)
}
