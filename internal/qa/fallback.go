package qa

import "strings"

// FallbackAnswer is the deterministic "not found" message. It echoes the
// recognized tokens so the user can see what was searched for.
func FallbackAnswer(tokens []string) string {
	tokenText := "(không có)"
	if len(tokens) > 0 {
		tokenText = strings.Join(tokens, ", ")
	}
	return headingTitle + "Chưa tìm thấy câu trả lời nội bộ phù hợp\n\n" +
		headingSteps + "\n" +
		"1) Gõ thêm từ khoá cụ thể hơn (tên biểu mẫu, phòng ban, tên thủ tục).\n" +
		"2) Dùng gợi ý bên dưới để chọn nhanh câu hỏi gần đúng.\n" +
		"3) Nếu vẫn chưa có: liên hệ Phòng/Đơn vị phụ trách để bổ sung nội dung.\n\n" +
		headingBody + "\nTừ khoá đã nhận: " + tokenText
}
